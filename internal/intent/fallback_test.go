package intent

import (
	"strings"
	"testing"

	"autobox/internal/config"
	"autobox/internal/sandbox"
)

func testParser(t *testing.T) *FallbackParser {
	t.Helper()
	layout, err := sandbox.NewLayout(t.TempDir(), config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewLayout failed: %v", err)
	}
	return NewFallbackParser(layout)
}

func requireSingle(t *testing.T, got Intent) Step {
	t.Helper()
	if len(got.Steps) != 1 {
		t.Fatalf("Steps = %d, want 1 (%+v)", len(got.Steps), got)
	}
	return got.Steps[0]
}

func TestParse_CreateWithAliasFolder(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("create notes.txt in ab2"))

	if step.Action != "create_file" {
		t.Errorf("Action = %q, want create_file", step.Action)
	}
	if step.Target != "AB2/notes.txt" {
		t.Errorf("Target = %q, want AB2/notes.txt", step.Target)
	}
	if !step.Content.IsNull() {
		t.Errorf("Content = %v, want null", step.Content)
	}
}

func TestParse_CreateDefaultsFolderAndFilename(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("make me a new file"))

	if step.Action != "create_file" {
		t.Errorf("Action = %q, want create_file", step.Action)
	}
	if !strings.HasPrefix(step.Target, "AB1/note_") || !strings.HasSuffix(step.Target, ".txt") {
		t.Errorf("Target = %q, want AB1/note_<ts>.txt", step.Target)
	}
}

func TestParse_WriteQuoted(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse(`write "hello" to file.txt`))

	if step.Action != "write_file" {
		t.Errorf("Action = %q, want write_file", step.Action)
	}
	if step.Target != "file.txt" {
		t.Errorf("Target = %q, want file.txt", step.Target)
	}
	if step.Content.Text() != "hello" {
		t.Errorf("Content = %q, want hello", step.Content.Text())
	}
}

func TestParse_WriteUnquotedSplitsOnTo(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("write shopping list to ab2/list.txt"))

	if step.Action != "write_file" || step.Target != "ab2/list.txt" {
		t.Errorf("step = %+v, want write_file ab2/list.txt", step)
	}
	if step.Content.Text() != "shopping list" {
		t.Errorf("Content = %q, want shopping list", step.Content.Text())
	}
}

func TestParse_ReadAppendsDefaultExtension(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("read soul"))

	if step.Action != "read_file" || step.Target != "soul.txt" {
		t.Errorf("step = %+v, want read_file soul.txt", step)
	}
}

func TestParse_OpenURLVariants(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "open https://example.com", want: "https://example.com"},
		{in: "open www.example.com", want: "https://www.example.com"},
		{in: "open google.com", want: "https://google.com"},
	}

	for _, tt := range tests {
		step := requireSingle(t, testParser(t).Parse(tt.in))
		if step.Action != "open_url" {
			t.Errorf("Parse(%q) action = %q, want open_url", tt.in, step.Action)
		}
		if step.Target != tt.want {
			t.Errorf("Parse(%q) target = %q, want %q", tt.in, step.Target, tt.want)
		}
	}
}

func TestParse_OpenApp(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("open calculator"))

	if step.Action != "open_app" || step.Target != "calculator" {
		t.Errorf("step = %+v, want open_app calculator", step)
	}
}

func TestParse_SearchStripsFor(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("search for golang generics"))

	if step.Action != "search_web" || step.Target != "golang generics" {
		t.Errorf("step = %+v, want search_web %q", step, "golang generics")
	}
}

func TestParse_MoveSplitsOnTo(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("move house.py to ab3"))

	if step.Action != "move_file" || step.Target != "house.py" {
		t.Errorf("step = %+v, want move_file house.py", step)
	}
	if step.Content.Text() != "ab3" {
		t.Errorf("destination = %q, want ab3", step.Content.Text())
	}
}

func TestParse_Delete(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("delete old_notes.txt please"))

	if step.Action != "delete_file" || step.Target != "old_notes.txt" {
		t.Errorf("step = %+v, want delete_file old_notes.txt", step)
	}
}

func TestParse_GreetingYieldsNoneStep(t *testing.T) {
	for _, in := range []string{"hello", "hey there", "thanks!", "how are you doing"} {
		step := requireSingle(t, testParser(t).Parse(in))
		if step.Action != "none" {
			t.Errorf("Parse(%q) action = %q, want none", in, step.Action)
		}
	}
}

func TestParse_GreetingWordsNeedWordBoundary(t *testing.T) {
	// "this" contains "hi"; it must not trip the greeting rule.
	step := requireSingle(t, testParser(t).Parse("delete this.txt"))
	if step.Action != "delete_file" {
		t.Errorf("Action = %q, want delete_file", step.Action)
	}
}

func TestParse_NoRuleMatchYieldsNoneStep(t *testing.T) {
	step := requireSingle(t, testParser(t).Parse("fold the laundry"))
	if step.Action != "none" {
		t.Errorf("Action = %q, want none", step.Action)
	}
}

func TestParse_CreateTargetResolvesUnderOneFolder(t *testing.T) {
	layout, err := sandbox.NewLayout(t.TempDir(), config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewLayout failed: %v", err)
	}
	p := NewFallbackParser(layout)

	inputs := []string{
		"create notes.txt in ab2",
		"create a file soul.txt",
		"make report.md in av3",
		"create something",
	}
	for _, in := range inputs {
		step := requireSingle(t, p.Parse(in))
		abs, err := layout.Resolve(step.Target)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", step.Target, err)
		}
		if folder := layout.FolderOf(abs); folder == "" {
			t.Errorf("Parse(%q) target %q resolves outside every sandbox folder", in, step.Target)
		}
	}
}
