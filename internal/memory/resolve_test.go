package memory

import (
	"os"
	"path/filepath"
	"testing"

	"autobox/internal/config"
	"autobox/internal/sandbox"
)

func testResolver(t *testing.T, extraRoots ...string) (*Resolver, *Store, *sandbox.Layout) {
	t.Helper()
	base := t.TempDir()
	layout, err := sandbox.NewLayout(base, config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewLayout failed: %v", err)
	}
	if err := layout.Ensure(); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	store := NewStore(base)
	return NewResolver(store, layout, extraRoots...), store, layout
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func TestResolve_DeicticUsesLastCreatedFile(t *testing.T) {
	r, store, _ := testResolver(t)

	if err := store.Update(SessionMemory{LastCreatedFile: "AB2/flower.txt"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	for _, phrase := range []string{"that", "that file", "last", "last file", "That File"} {
		if got := r.Resolve(phrase); got != "AB2/flower.txt" {
			t.Errorf("Resolve(%q) = %q, want AB2/flower.txt", phrase, got)
		}
	}
}

func TestResolve_DeicticFallsBackToLastTouched(t *testing.T) {
	r, store, _ := testResolver(t)

	if err := store.Update(SessionMemory{LastTouchedFile: "AB1/old.txt"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got := r.Resolve("that file"); got != "AB1/old.txt" {
		t.Errorf("Resolve = %q, want AB1/old.txt", got)
	}
}

func TestResolve_DeicticWithEmptyMemoryReturnsInput(t *testing.T) {
	r, _, _ := testResolver(t)
	if got := r.Resolve("that file"); got != "that file" {
		t.Errorf("Resolve = %q, want input unchanged", got)
	}
}

func TestResolve_FolderAlias(t *testing.T) {
	r, _, _ := testResolver(t)

	if got := r.Resolve("av2"); got != "AB2" {
		t.Errorf("Resolve(av2) = %q, want AB2", got)
	}
	if got := r.Resolve("AB3"); got != "AB3" {
		t.Errorf("Resolve(AB3) = %q, want AB3", got)
	}
}

func TestResolve_FuzzyMatch(t *testing.T) {
	r, _, layout := testResolver(t)

	touch(t, filepath.Join(layout.Root, "AB1", "invoice.txt"))
	touch(t, filepath.Join(layout.Root, "AB2", "invoices_2024.txt"))

	if got := r.Resolve("invoic.txt"); got != "invoice.txt" {
		t.Errorf("Resolve(invoic.txt) = %q, want invoice.txt", got)
	}
	if got := r.Resolve("zzz_unrelated"); got != "zzz_unrelated" {
		t.Errorf("Resolve(zzz_unrelated) = %q, want input unchanged", got)
	}
}

func TestResolve_FuzzyMatchTiesKeepFirstCandidate(t *testing.T) {
	r, _, layout := testResolver(t)

	// Both candidates score the same against the query; the first one in
	// walk order must win, every time.
	touch(t, filepath.Join(layout.Root, "AB1", "note1.txt"))
	touch(t, filepath.Join(layout.Root, "AB1", "note2.txt"))

	for i := 0; i < 5; i++ {
		if got := r.Resolve("note0.txt"); got != "note1.txt" {
			t.Fatalf("Resolve(note0.txt) = %q on run %d, want note1.txt", got, i)
		}
	}
}

func TestResolve_FuzzyMatchScansExtraRoots(t *testing.T) {
	legacy := t.TempDir()
	touch(t, filepath.Join(legacy, "readme.md"))

	r, _, _ := testResolver(t, legacy)

	if got := r.Resolve("readm.md"); got != "readme.md" {
		t.Errorf("Resolve(readm.md) = %q, want readme.md", got)
	}
}

func TestResolve_EmptyInputUnchanged(t *testing.T) {
	r, _, _ := testResolver(t)
	if got := r.Resolve(""); got != "" {
		t.Errorf("Resolve(\"\") = %q, want empty", got)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b  string
		above bool // above or at the 0.6 threshold
	}{
		{a: "invoice.txt", b: "invoice.txt", above: true},
		{a: "invoic.txt", b: "invoice.txt", above: true},
		{a: "INVOICE.TXT", b: "invoice.txt", above: true},
		{a: "zzz_unrelated", b: "invoice.txt", above: false},
		{a: "a", b: "b", above: false},
	}

	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %v, out of range", tt.a, tt.b, got)
		}
		if (got >= similarityThreshold) != tt.above {
			t.Errorf("Similarity(%q, %q) = %v, above-threshold = %v, want %v",
				tt.a, tt.b, got, got >= similarityThreshold, tt.above)
		}
	}
}
