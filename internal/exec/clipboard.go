package exec

import (
	"github.com/atotto/clipboard"

	"autobox/internal/errors"
)

// historyLimit caps the in-memory clipboard history.
const historyLimit = 10

// Clipboard copies and pastes text through the system clipboard, keeping a
// short in-memory history of copied values for the status view.
type Clipboard struct {
	history []string
	writeFn func(string) error     // injectable for tests
	readFn  func() (string, error) // injectable for tests
}

// NewClipboard creates a clipboard executor backed by the system clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{
		writeFn: clipboard.WriteAll,
		readFn:  clipboard.ReadAll,
	}
}

// Copy places text on the clipboard.
func (c *Clipboard) Copy(text string) error {
	if text == "" {
		return errors.NewInvalidRequest("nothing to copy")
	}
	if err := c.writeFn(text); err != nil {
		return errors.NewExecutorFailed("copy_clipboard", err)
	}

	c.history = append(c.history, text)
	if len(c.history) > historyLimit {
		c.history = c.history[len(c.history)-historyLimit:]
	}
	return nil
}

// Paste returns the clipboard's current text.
func (c *Clipboard) Paste() (string, error) {
	text, err := c.readFn()
	if err != nil {
		return "", errors.NewExecutorFailed("paste_clipboard", err)
	}
	return text, nil
}

// History returns a copy of recently copied values, oldest first.
func (c *Clipboard) History() []string {
	out := make([]string, len(c.history))
	copy(out, c.history)
	return out
}
