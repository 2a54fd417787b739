package intent

import (
	"encoding/json"
	"testing"
)

func TestContentText_Scalar(t *testing.T) {
	c := NewText("hello")
	if got := c.Text(); got != "hello" {
		t.Errorf("Text() = %q, want hello", got)
	}
}

func TestContentText_ListJoinsWithCommaSpace(t *testing.T) {
	c := Content{Kind: ContentList, List: []string{"milk", "eggs", "bread"}}
	if got := c.Text(); got != "milk, eggs, bread" {
		t.Errorf("Text() = %q, want joined list", got)
	}
}

func TestContentText_MapIndented(t *testing.T) {
	c := Content{Kind: ContentMap, Map: map[string]any{"name": "soul"}}
	want := "{\n  \"name\": \"soul\"\n}"
	if got := c.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestContentText_Null(t *testing.T) {
	var c Content
	if !c.IsNull() {
		t.Error("zero Content should be null")
	}
	if got := c.Text(); got != "" {
		t.Errorf("Text() = %q, want empty", got)
	}
}

func TestContentUnmarshal_Shapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		kind ContentKind
	}{
		{name: "string", in: `{"content": "hi"}`, want: "hi", kind: ContentScalar},
		{name: "number", in: `{"content": 42}`, want: "42", kind: ContentScalar},
		{name: "bool", in: `{"content": true}`, want: "true", kind: ContentScalar},
		{name: "list", in: `{"content": ["a", "b"]}`, want: "a, b", kind: ContentList},
		{name: "mixed list", in: `{"content": ["a", 1]}`, want: "a, 1", kind: ContentList},
		{name: "null", in: `{"content": null}`, want: "", kind: ContentNull},
		{name: "absent", in: `{}`, want: "", kind: ContentNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var step Step
			if err := json.Unmarshal([]byte(tt.in), &step); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if step.Content.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", step.Content.Kind, tt.kind)
			}
			if got := step.Content.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want ActionKind
		ok   bool
	}{
		{in: "create_file", want: ActionCreateFile, ok: true},
		{in: "FILE_CREATE", want: ActionCreateFile, ok: true},
		{in: "web_search", want: ActionSearchWeb, ok: true},
		{in: "chat", want: ActionNone, ok: true},
		{in: " none ", want: ActionNone, ok: true},
		{in: "format_disk", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseAction(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseAction(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseAction(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
