// Package intent converts a free-form user command into a validated,
// ordered sequence of typed steps. Acquisition goes through the external
// model first and falls back to the deterministic rule parser whenever the
// model is unreachable or its output is unusable.
package intent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind is the closed enumeration of step actions.
type ActionKind string

const (
	ActionCreateFile     ActionKind = "create_file"
	ActionWriteFile      ActionKind = "write_file"
	ActionReadFile       ActionKind = "read_file"
	ActionMoveFile       ActionKind = "move_file"
	ActionDeleteFile     ActionKind = "delete_file"
	ActionOpenURL        ActionKind = "open_url"
	ActionSearchWeb      ActionKind = "search_web"
	ActionExtractWeb     ActionKind = "extract_web"
	ActionCopyClipboard  ActionKind = "copy_clipboard"
	ActionPasteClipboard ActionKind = "paste_clipboard"
	ActionOpenApp        ActionKind = "open_app"
	ActionCloseApp       ActionKind = "close_app"
	ActionSystemInfo     ActionKind = "system_info"
	ActionNone           ActionKind = "none"
)

// knownActions includes loose synonyms small models produce for each kind.
var knownActions = map[string]ActionKind{
	"create_file": ActionCreateFile, "file_create": ActionCreateFile,
	"write_file": ActionWriteFile, "file_write": ActionWriteFile,
	"read_file": ActionReadFile, "file_read": ActionReadFile,
	"move_file": ActionMoveFile, "file_move": ActionMoveFile,
	"delete_file": ActionDeleteFile, "file_delete": ActionDeleteFile,
	"open_url": ActionOpenURL, "web_open": ActionOpenURL,
	"search_web": ActionSearchWeb, "web_search": ActionSearchWeb, "search": ActionSearchWeb,
	"extract_web": ActionExtractWeb, "web_extract": ActionExtractWeb,
	"copy_clipboard": ActionCopyClipboard, "clip_copy": ActionCopyClipboard, "copy": ActionCopyClipboard,
	"paste_clipboard": ActionPasteClipboard, "clip_paste": ActionPasteClipboard, "paste": ActionPasteClipboard,
	"open_app": ActionOpenApp, "app_open": ActionOpenApp,
	"close_app": ActionCloseApp,
	"system_info": ActionSystemInfo, "info": ActionSystemInfo,
	"none": ActionNone, "chat": ActionNone, "respond": ActionNone,
}

// ParseAction canonicalizes a raw action string. The boolean reports whether
// the value belongs to the known enumeration; unknown values are a distinct
// "unrecognized" outcome for the dispatcher, never a parse error.
func ParseAction(raw string) (ActionKind, bool) {
	kind, ok := knownActions[strings.ToLower(strings.TrimSpace(raw))]
	return kind, ok
}

// Step is one requested action. Immutable once produced.
type Step struct {
	Action  string  `json:"action"`
	Target  string  `json:"target"`
	Content Content `json:"content"`
}

// Intent is an ordered sequence of steps derived from one user command.
// An empty sequence is a valid, meaningful value: no actionable request.
type Intent struct {
	Steps []Step `json:"steps"`
}

// ContentKind tags the shape the content field arrived in.
type ContentKind int

const (
	ContentNull ContentKind = iota
	ContentScalar
	ContentList
	ContentMap
)

// Content models the dynamically-shaped content field of a step. Small
// models emit it as a scalar, an ordered sequence, or a key/value map; the
// shape is preserved at the boundary and flattened to text exactly once, on
// entry to the dispatcher.
type Content struct {
	Kind   ContentKind
	Scalar string
	List   []string
	Map    map[string]any
}

// NewText builds scalar content from a string. Empty text is null content.
func NewText(s string) Content {
	if s == "" {
		return Content{}
	}
	return Content{Kind: ContentScalar, Scalar: s}
}

// IsNull reports whether no content arrived.
func (c Content) IsNull() bool {
	return c.Kind == ContentNull
}

// Text normalizes content to a single text value: sequences join with ", ",
// maps serialize to an indented block, scalars pass through.
func (c Content) Text() string {
	switch c.Kind {
	case ContentScalar:
		return c.Scalar
	case ContentList:
		return strings.Join(c.List, ", ")
	case ContentMap:
		b, err := json.MarshalIndent(c.Map, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", c.Map)
		}
		return string(b)
	default:
		return ""
	}
}

// UnmarshalJSON accepts null, scalars, arrays, and objects.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = Content{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			items = append(items, scalarString(r))
		}
		*c = Content{Kind: ContentList, List: items}
	case '{':
		m := make(map[string]any)
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*c = Content{Kind: ContentMap, Map: m}
	default:
		*c = Content{Kind: ContentScalar, Scalar: scalarString(data)}
	}
	return nil
}

// MarshalJSON renders content back in its arrival shape.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ContentScalar:
		return json.Marshal(c.Scalar)
	case ContentList:
		return json.Marshal(c.List)
	case ContentMap:
		return json.Marshal(c.Map)
	default:
		return []byte("null"), nil
	}
}

// scalarString renders a raw JSON scalar as text, unquoting strings and
// leaving numbers and booleans as written.
func scalarString(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return strings.Trim(string(raw), `"`)
}
