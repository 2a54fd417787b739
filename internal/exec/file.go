// Package exec holds the executor collaborators the dispatcher routes steps
// to: files, web, clipboard, apps, and system info. Executors receive
// already-resolved absolute paths; the file executor still re-checks
// containment as defense in depth.
package exec

import (
	"fmt"
	"os"
	"path/filepath"

	"autobox/internal/errors"
	"autobox/internal/sandbox"
)

// Files performs sandboxed file I/O.
type Files struct {
	layout   *sandbox.Layout
	maxBytes int64
}

// NewFiles creates a file executor confined to layout. maxSizeMB bounds
// content size for writes and reads; zero means 10 MB.
func NewFiles(layout *sandbox.Layout, maxSizeMB int) *Files {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &Files{layout: layout, maxBytes: int64(maxSizeMB) << 20}
}

// guard rejects paths outside the sandbox before any I/O.
func (f *Files) guard(abs string) error {
	if abs == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if !f.layout.Within(abs) {
		return errors.NewSandboxViolation(abs)
	}
	return nil
}

// Create creates a file, writing content when provided. Parent directories
// are created as needed; an existing file is left in place and only touched.
func (f *Files) Create(abs, content string) error {
	if err := f.guard(abs); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return errors.NewInternal(err)
	}

	if content != "" {
		return f.Write(abs, content)
	}

	file, err := os.OpenFile(abs, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewInternal(err)
	}
	return file.Close()
}

// Write replaces the file's content.
func (f *Files) Write(abs, content string) error {
	if err := f.guard(abs); err != nil {
		return err
	}
	if int64(len(content)) > f.maxBytes {
		return errors.NewInvalidRequest(fmt.Sprintf("content exceeds %d MB limit", f.maxBytes>>20))
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return errors.NewInternal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Read returns the file's content.
func (f *Files) Read(abs string) (string, error) {
	if err := f.guard(abs); err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", errors.NewNotFound(f.layout.Display(abs))
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if info.Size() > f.maxBytes {
		return "", errors.NewInvalidRequest(fmt.Sprintf("file exceeds %d MB limit", f.maxBytes>>20))
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// Move relocates a file. When the destination is an existing directory the
// source keeps its filename inside it.
func (f *Files) Move(srcAbs, dstAbs string) (string, error) {
	if err := f.guard(srcAbs); err != nil {
		return "", err
	}
	if err := f.guard(dstAbs); err != nil {
		return "", err
	}

	if _, err := os.Stat(srcAbs); os.IsNotExist(err) {
		return "", errors.NewNotFound(f.layout.Display(srcAbs))
	}

	if info, err := os.Stat(dstAbs); err == nil && info.IsDir() {
		dstAbs = filepath.Join(dstAbs, filepath.Base(srcAbs))
	}

	if err := os.MkdirAll(filepath.Dir(dstAbs), 0755); err != nil {
		return "", errors.NewInternal(err)
	}
	if err := os.Rename(srcAbs, dstAbs); err != nil {
		return "", errors.NewInternal(err)
	}
	return dstAbs, nil
}

// Delete removes a file.
func (f *Files) Delete(abs string) error {
	if err := f.guard(abs); err != nil {
		return err
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return errors.NewNotFound(f.layout.Display(abs))
	}
	if err := os.Remove(abs); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Find searches every sandbox folder for a bare filename and returns the
// first hit, or "" when nothing matches.
func (f *Files) Find(name string) string {
	for _, folder := range f.layout.Folders {
		candidate := filepath.Join(f.layout.Root, folder, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
