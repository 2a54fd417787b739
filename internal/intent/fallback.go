package intent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"autobox/internal/sandbox"
)

// FallbackParser is the deterministic, rule-based substitute for the model.
// It makes no external calls, always returns an intent, and never fails:
// when no rule matches it produces a single "none" step so the dispatcher
// can route the text to the conversational handler.
type FallbackParser struct {
	layout *sandbox.Layout
}

// NewFallbackParser creates a fallback parser bound to the sandbox layout
// it derives target folders from.
func NewFallbackParser(layout *sandbox.Layout) *FallbackParser {
	return &FallbackParser{layout: layout}
}

var (
	filenameRe    = regexp.MustCompile(`([\w-]+\.\w+)`)
	quotedWriteRe = regexp.MustCompile(`write\s+["']([^"']+)["']\s+to\s+(\S+)`)
	urlRe         = regexp.MustCompile(`(https?://\S+|www\.\S+|\S+\.(?:com|org|net|io|dev)\b\S*)`)
)

// greetingPhrases are matched as substrings; greetingWords must match a
// whole word to avoid firing inside longer tokens ("this" contains "hi").
var (
	greetingPhrases = []string{
		"how are you", "good morning", "good afternoon", "good evening",
		"thank you", "what can you do", "who are you",
	}
	greetingWords = []string{"hello", "hi", "hey", "thanks", "bye", "goodbye"}
)

// Parse pattern-matches raw command text into the same step shape the model
// produces. Rule priority mirrors the keyword order below; the first match
// wins. All tests are case-insensitive against the lower-cased input.
func (p *FallbackParser) Parse(userText string) Intent {
	text := strings.ToLower(strings.TrimSpace(userText))
	if text == "" {
		return single(ActionNone, "", Content{})
	}

	if isGreeting(text) {
		return single(ActionNone, strings.TrimSpace(userText), Content{})
	}

	switch {
	case containsAny(text, "create", "make"):
		return p.parseCreate(text)
	case strings.Contains(text, "write"):
		return p.parseWrite(text)
	case strings.Contains(text, "read"):
		return p.parseRead(text)
	case strings.Contains(text, "open"):
		return p.parseOpen(text)
	case strings.Contains(text, "search"):
		return p.parseSearch(text)
	case strings.Contains(text, "move") && strings.Contains(text, " to "):
		return p.parseMove(text)
	case containsAny(text, "delete", "remove"):
		return p.parseDelete(text)
	}

	return single(ActionNone, strings.TrimSpace(userText), Content{})
}

func (p *FallbackParser) parseCreate(text string) Intent {
	filename := ""
	if m := filenameRe.FindString(text); m != "" {
		filename = m
	} else {
		filename = fmt.Sprintf("note_%d.txt", time.Now().Unix())
	}

	folder := p.folderFromTokens(text)
	return single(ActionCreateFile, folder+"/"+filename, Content{})
}

func (p *FallbackParser) parseWrite(text string) Intent {
	if m := quotedWriteRe.FindStringSubmatch(text); m != nil {
		return single(ActionWriteFile, m[2], NewText(m[1]))
	}

	if before, after, ok := strings.Cut(text, " to "); ok {
		content := strings.TrimSpace(strings.Replace(before, "write", "", 1))
		content = strings.Trim(content, `"'`)
		return single(ActionWriteFile, strings.TrimSpace(after), NewText(content))
	}

	return single(ActionNone, text, Content{})
}

func (p *FallbackParser) parseRead(text string) Intent {
	target := strings.TrimSpace(strings.Replace(text, "read", "", 1))
	if target == "" {
		return single(ActionNone, text, Content{})
	}
	if !strings.Contains(target, ".") {
		target += ".txt"
	}
	return single(ActionReadFile, target, Content{})
}

func (p *FallbackParser) parseOpen(text string) Intent {
	if containsAny(text, "http", "www") || urlRe.MatchString(text) {
		url := urlRe.FindString(text)
		if url == "" {
			url = strings.TrimSpace(strings.Replace(text, "open", "", 1))
		}
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			url = "https://" + url
		}
		return single(ActionOpenURL, url, Content{})
	}

	app := strings.TrimSpace(strings.Replace(text, "open", "", 1))
	return single(ActionOpenApp, app, Content{})
}

func (p *FallbackParser) parseSearch(text string) Intent {
	query := strings.TrimSpace(strings.Replace(text, "search", "", 1))
	query = strings.TrimSpace(strings.TrimPrefix(query, "for "))
	if query == "" {
		return single(ActionNone, text, Content{})
	}
	return single(ActionSearchWeb, query, Content{})
}

func (p *FallbackParser) parseMove(text string) Intent {
	stripped := strings.TrimSpace(strings.Replace(text, "move", "", 1))
	source, dest, _ := strings.Cut(stripped, " to ")
	return single(ActionMoveFile, strings.TrimSpace(source), NewText(strings.TrimSpace(dest)))
}

func (p *FallbackParser) parseDelete(text string) Intent {
	target := filenameRe.FindString(text)
	if target == "" {
		target = strings.TrimSpace(strings.NewReplacer("delete", "", "remove", "").Replace(text))
	}
	if target == "" {
		return single(ActionNone, text, Content{})
	}
	return single(ActionDeleteFile, target, Content{})
}

// folderFromTokens finds the first alias or folder token in the text,
// defaulting to the first sandbox folder.
func (p *FallbackParser) folderFromTokens(text string) string {
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?")
		if folder := p.layout.Canonical(word); folder != "" {
			return folder
		}
	}
	return p.layout.DefaultFolder()
}

func single(action ActionKind, target string, content Content) Intent {
	return Intent{Steps: []Step{{Action: string(action), Target: target, Content: content}}}
}

func isGreeting(text string) bool {
	for _, phrase := range greetingPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?")
		for _, g := range greetingWords {
			if word == g {
				return true
			}
		}
	}
	return false
}

func containsAny(text string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
