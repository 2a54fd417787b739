package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"autobox/internal/config"
	"autobox/internal/dispatch"
	"autobox/internal/exec"
	"autobox/internal/history"
	"autobox/internal/intent"
	"autobox/internal/memory"
	"autobox/internal/sandbox"
)

// testSetup builds a full handler stack over a temp directory. The model is
// nil so acquisition always uses the rule-based parser.
func testSetup(t *testing.T) (*Handlers, *sandbox.Layout) {
	t.Helper()
	base := t.TempDir()

	layout, err := sandbox.NewLayout(base, config.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to build layout: %v", err)
	}
	if err := layout.Ensure(); err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}

	db, err := history.Init(base)
	if err != nil {
		t.Fatalf("failed to init history: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := memory.NewStore(base)
	dispatcher := dispatch.New(dispatch.Deps{
		Layout:   layout,
		Files:    exec.NewFiles(layout, 10),
		Web:      exec.NewWeb(0),
		Apps:     exec.NewApps(),
		Store:    store,
		Resolver: memory.NewResolver(store, layout),
		DB:       db,
		Out:      io.Discard,
	})
	acquirer := intent.NewAcquirer(nil, intent.NewFallbackParser(layout), nil)

	return NewHandlers(acquirer, dispatcher, store, db), layout
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultText extracts the text payload of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	want := map[string]bool{
		"assistant_run":     true,
		"assistant_memory":  true,
		"assistant_history": true,
	}
	if len(names) != len(want) {
		t.Fatalf("AllToolNames returned %d names, want %d", len(names), len(want))
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected tool name %q", n)
		}
	}
}

func TestHandleRun_CreatesFile(t *testing.T) {
	h, layout := testSetup(t)

	res, err := h.HandleRun(context.Background(),
		makeRequest(map[string]any{"command": "create a file called notes.txt"}))
	if err != nil {
		t.Fatalf("HandleRun returned error: %v", err)
	}
	if res.IsError {
		t.Fatalf("HandleRun result is error: %s", resultText(t, res))
	}

	var out dispatch.Result
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if !out.OK {
		t.Errorf("result.OK = false: %+v", out)
	}

	if _, err := os.Stat(filepath.Join(layout.Root, "AB1", "notes.txt")); err != nil {
		t.Errorf("expected created file: %v", err)
	}
}

func TestHandleRun_MissingCommand(t *testing.T) {
	h, _ := testSetup(t)

	res, err := h.HandleRun(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleRun returned error: %v", err)
	}
	if !res.IsError {
		t.Fatal("empty command should produce an error result")
	}
	if !strings.Contains(resultText(t, res), "INVALID_REQUEST") {
		t.Errorf("error payload = %s, want INVALID_REQUEST code", resultText(t, res))
	}
}

func TestHandleMemory_ShowAndClear(t *testing.T) {
	h, _ := testSetup(t)

	if _, err := h.HandleRun(context.Background(),
		makeRequest(map[string]any{"command": "create todo.txt"})); err != nil {
		t.Fatalf("HandleRun failed: %v", err)
	}

	res, err := h.HandleMemory(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleMemory returned error: %v", err)
	}
	var mem memory.SessionMemory
	if err := json.Unmarshal([]byte(resultText(t, res)), &mem); err != nil {
		t.Fatalf("memory payload is not JSON: %v", err)
	}
	if mem.LastCreatedFile != "AB1/todo.txt" {
		t.Errorf("LastCreatedFile = %q, want AB1/todo.txt", mem.LastCreatedFile)
	}

	res, err = h.HandleMemory(context.Background(), makeRequest(map[string]any{"clear": true}))
	if err != nil {
		t.Fatalf("HandleMemory clear returned error: %v", err)
	}
	if !strings.Contains(resultText(t, res), "cleared") {
		t.Errorf("clear payload = %s", resultText(t, res))
	}

	if after := h.store.Load(); after.LastCreatedFile != "" {
		t.Error("memory should be empty after clear")
	}
}

func TestHandleHistory_ReturnsEntries(t *testing.T) {
	h, _ := testSetup(t)

	if _, err := h.HandleRun(context.Background(),
		makeRequest(map[string]any{"command": "create a.txt"})); err != nil {
		t.Fatalf("HandleRun failed: %v", err)
	}
	if _, err := h.HandleRun(context.Background(),
		makeRequest(map[string]any{"command": "create b.txt"})); err != nil {
		t.Fatalf("HandleRun failed: %v", err)
	}

	res, err := h.HandleHistory(context.Background(), makeRequest(map[string]any{"limit": 10}))
	if err != nil {
		t.Fatalf("HandleHistory returned error: %v", err)
	}

	var out struct {
		Entries []history.Entry `json:"entries"`
		Total   int             `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("history payload is not JSON: %v", err)
	}
	if out.Total != 2 || len(out.Entries) != 2 {
		t.Errorf("total = %d, entries = %d, want 2/2", out.Total, len(out.Entries))
	}
	if out.Entries[0].Command != "create b.txt" {
		t.Errorf("newest entry command = %q, want most recent first", out.Entries[0].Command)
	}
}
