package dispatch

import (
	"strings"
	"time"
)

// chatPhrases are conversational substrings; chatWords must match a whole
// word so "this" never reads as "hi".
var (
	chatPhrases = []string{
		"how are you", "what's up", "good morning", "good afternoon",
		"good evening", "thank you", "what can you do", "who are you",
		"your name",
	}
	chatWords = []string{"hello", "hi", "hey", "thanks", "bye", "goodbye", "sorry"}

	questionLeads = []string{"what", "how", "why", "when", "where", "who", "can", "could"}
)

// IsChat reports whether text reads as conversation rather than a command:
// a greeting, thanks, a farewell, a capability question, or any
// interrogative-leading or question-marked sentence.
func IsChat(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}

	for _, phrase := range chatPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}

	words := strings.Fields(text)
	for _, w := range words {
		w = strings.Trim(w, ".,!?")
		for _, c := range chatWords {
			if w == c {
				return true
			}
		}
	}

	if strings.Contains(text, "?") {
		return true
	}

	if len(words) > 0 {
		lead := strings.Trim(words[0], ".,!?")
		for _, q := range questionLeads {
			if lead == q {
				return true
			}
		}
	}

	return false
}

// ChatResponse produces the conversational answer for chat input.
// Deterministic: the same input always gets the same answer.
func ChatResponse(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))

	switch {
	case containsWord(t, "hello", "hi", "hey"):
		return "Hello! How can I help you today?"
	case strings.Contains(t, "how are you"):
		return "Functioning optimally and ready for tasks."
	case containsWord(t, "thanks") || strings.Contains(t, "thank you"):
		return "You're welcome!"
	case containsWord(t, "bye", "goodbye"):
		return "Goodbye! Have a great day."
	case strings.Contains(t, "what can you do") || strings.Contains(t, "who are you") || strings.Contains(t, "your name"):
		return "I'm a local assistant. I can create, write, read, move, and delete files in the sandbox, open URLs and apps, search the web, and manage the clipboard."
	case strings.Contains(t, "time"):
		return "The current time is " + time.Now().Format("3:04 PM") + "."
	case strings.Contains(t, "?"):
		return "I'm focused on executing commands. Try 'create file', 'open app', or 'search web'."
	default:
		return "I'm here to help. Ask me to create a file, open something, or search the web."
	}
}

func containsWord(text string, words ...string) bool {
	for _, field := range strings.Fields(text) {
		field = strings.Trim(field, ".,!?")
		for _, w := range words {
			if field == w {
				return true
			}
		}
	}
	return false
}
