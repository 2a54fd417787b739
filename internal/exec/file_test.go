package exec

import (
	"os"
	"path/filepath"
	"testing"

	"autobox/internal/config"
	"autobox/internal/errors"
	"autobox/internal/sandbox"
)

func testFiles(t *testing.T) (*Files, *sandbox.Layout) {
	t.Helper()
	layout, err := sandbox.NewLayout(t.TempDir(), config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewLayout failed: %v", err)
	}
	if err := layout.Ensure(); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	return NewFiles(layout, 10), layout
}

func TestCreate_EmptyFile(t *testing.T) {
	f, layout := testFiles(t)
	abs := filepath.Join(layout.Root, "AB1", "empty.txt")

	if err := f.Create(abs, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

func TestCreate_WithContent(t *testing.T) {
	f, layout := testFiles(t)
	abs := filepath.Join(layout.Root, "AB2", "flower.txt")

	if err := f.Create(abs, "petals"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := f.Read(abs)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != "petals" {
		t.Errorf("content = %q, want petals", got)
	}
}

func TestCreate_ExistingFileUntouched(t *testing.T) {
	f, layout := testFiles(t)
	abs := filepath.Join(layout.Root, "AB1", "keep.txt")

	if err := f.Write(abs, "original"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := f.Create(abs, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, _ := f.Read(abs)
	if got != "original" {
		t.Errorf("content = %q, want original preserved", got)
	}
}

func TestWrite_Replaces(t *testing.T) {
	f, layout := testFiles(t)
	abs := filepath.Join(layout.Root, "AB1", "notes.txt")

	if err := f.Write(abs, "first"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := f.Write(abs, "second"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, _ := f.Read(abs)
	if got != "second" {
		t.Errorf("content = %q, want second", got)
	}
}

func TestRead_NotFound(t *testing.T) {
	f, layout := testFiles(t)

	_, err := f.Read(filepath.Join(layout.Root, "AB1", "missing.txt"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestMove_IntoFolder(t *testing.T) {
	f, layout := testFiles(t)
	src := filepath.Join(layout.Root, "AB1", "house.py")
	if err := f.Write(src, "code"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	dst, err := f.Move(src, filepath.Join(layout.Root, "AB3"))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	want := filepath.Join(layout.Root, "AB3", "house.py")
	if dst != want {
		t.Errorf("dst = %q, want %q", dst, want)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still present after move")
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestMove_MissingSource(t *testing.T) {
	f, layout := testFiles(t)

	_, err := f.Move(filepath.Join(layout.Root, "AB1", "ghost.txt"), filepath.Join(layout.Root, "AB2"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestDelete(t *testing.T) {
	f, layout := testFiles(t)
	abs := filepath.Join(layout.Root, "AB1", "gone.txt")
	if err := f.Write(abs, "x"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := f.Delete(abs); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		t.Error("file still present after delete")
	}

	if err := f.Delete(abs); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete err = %v, want NOT_FOUND", err)
	}
}

func TestGuard_OutsideSandboxRejected(t *testing.T) {
	f, _ := testFiles(t)
	outside := filepath.Join(t.TempDir(), "outside.txt")

	if err := f.Write(outside, "x"); !errors.Is(err, errors.ErrSandboxViolation) {
		t.Errorf("Write outside err = %v, want SANDBOX_VIOLATION", err)
	}
	if _, err := f.Read(outside); !errors.Is(err, errors.ErrSandboxViolation) {
		t.Errorf("Read outside err = %v, want SANDBOX_VIOLATION", err)
	}
	if err := f.Delete(outside); !errors.Is(err, errors.ErrSandboxViolation) {
		t.Errorf("Delete outside err = %v, want SANDBOX_VIOLATION", err)
	}
}

func TestFind(t *testing.T) {
	f, layout := testFiles(t)
	abs := filepath.Join(layout.Root, "AB2", "hidden.txt")
	if err := f.Write(abs, "x"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if got := f.Find("hidden.txt"); got != abs {
		t.Errorf("Find = %q, want %q", got, abs)
	}
	if got := f.Find("nowhere.txt"); got != "" {
		t.Errorf("Find = %q, want empty", got)
	}
}
