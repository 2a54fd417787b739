package exec

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/net/html"

	"autobox/internal/errors"
)

// Web opens URLs in the system browser and extracts page text. Browser
// automation proper is out of scope; this is the thin call/response surface
// the dispatcher depends on.
type Web struct {
	client *http.Client
	openFn func(url string) error // injectable for tests
}

// NewWeb creates a web executor with a bounded HTTP client.
func NewWeb(timeout time.Duration) *Web {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Web{
		client: &http.Client{Timeout: timeout},
		openFn: openInBrowser,
	}
}

// OpenURL opens the URL in the default browser. A missing scheme gets
// https:// prefixed.
func (w *Web) OpenURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.NewInvalidRequest("url is required")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	if err := w.openFn(rawURL); err != nil {
		return "", errors.NewExecutorFailed("open_url", err)
	}
	return rawURL, nil
}

// SearchURL builds the search-engine URL for a query.
func (w *Web) SearchURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

// Extract fetches a page and returns its visible text.
func (w *Web) Extract(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.NewInvalidRequest("url is required")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid url: %v", err))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", errors.NewExecutorFailed("extract_web", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewExecutorFailed("extract_web",
			fmt.Errorf("server returned status %d", resp.StatusCode))
	}

	text, err := pageText(resp.Body)
	if err != nil {
		return "", errors.NewExecutorFailed("extract_web", err)
	}
	return text, nil
}

// pageText walks the HTML tree collecting text nodes, skipping script and
// style subtrees, and collapsing runs of whitespace.
func pageText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(b.String()), nil
}

// openInBrowser invokes the platform's URL opener.
func openInBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
