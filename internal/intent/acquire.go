package intent

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"autobox/internal/llm"
)

// Acquirer turns one user command into an intent. It asks the model first
// and recovers structure from whatever comes back; any transport failure or
// unusable response routes to the fallback parser instead of the caller.
type Acquirer struct {
	model    llm.Model
	fallback *FallbackParser
	log      *zap.SugaredLogger
}

// NewAcquirer creates an acquirer. model may be nil, in which case every
// command goes straight to the fallback parser.
func NewAcquirer(model llm.Model, fallback *FallbackParser, log *zap.SugaredLogger) *Acquirer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Acquirer{model: model, fallback: fallback, log: log}
}

// Acquire sends the command to the model and recovers a step list from its
// response. The returned intent is always usable; acquisition failure is an
// internal event, not a caller-visible error.
func (a *Acquirer) Acquire(ctx context.Context, userText string) Intent {
	if a.model == nil {
		return a.fallback.Parse(userText)
	}

	raw, err := a.model.Complete(ctx, BuildPrompt(userText))
	if err != nil {
		a.log.Infow("model unavailable, using fallback parser", "error", err)
		return a.fallback.Parse(userText)
	}

	parsed, err := RecoverIntent(raw)
	if err != nil {
		a.log.Infow("model output unusable, using fallback parser", "error", err)
		return a.fallback.Parse(userText)
	}

	return parsed
}

// RecoverIntent extracts a validated intent from raw model output.
// Two-stage recovery: strip code fences and try a direct parse, then hunt
// for the first balanced top-level object in the text. Small local models
// reliably wrap or truncate their structured output with explanatory prose,
// so the direct parse alone is not enough.
func RecoverIntent(raw string) (Intent, error) {
	cleaned := stripFences(strings.TrimSpace(raw))
	if cleaned == "" {
		return Intent{}, errEmptyResponse
	}

	if parsed, err := parseIntentObject(cleaned); err == nil {
		return parsed, nil
	}

	embedded := firstBalancedObject(cleaned)
	if embedded == "" {
		return Intent{}, errNoObject
	}
	return parseIntentObject(embedded)
}

var (
	errEmptyResponse = errorString("model returned an empty response")
	errNoObject      = errorString("no object-shaped substring in model response")
	errBadShape      = errorString(`model response has no "steps" array`)
)

type errorString string

func (e errorString) Error() string { return string(e) }

// parseIntentObject accepts only an object whose "steps" field holds an
// array. Any other shape is an acquisition failure.
func parseIntentObject(s string) (Intent, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return Intent{}, err
	}
	stepsRaw, ok := probe["steps"]
	if !ok || len(stepsRaw) == 0 || stepsRaw[0] != '[' {
		return Intent{}, errBadShape
	}

	var steps []Step
	if err := json.Unmarshal(stepsRaw, &steps); err != nil {
		return Intent{}, err
	}
	if steps == nil {
		steps = []Step{}
	}
	return Intent{Steps: steps}, nil
}

// stripFences removes surrounding markdown code-fence markers, with or
// without a language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop a language tag like "json" on the fence line.
		first := strings.TrimSpace(s[:idx])
		if first != "" && !strings.ContainsAny(first, "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// firstBalancedObject returns the first top-level {...} substring with
// balanced braces, skipping braces inside string literals. Empty when the
// text holds no complete object.
func firstBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
