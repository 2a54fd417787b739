// Package sandbox confines every user-reachable file path to a fixed set of
// named folders under a single root. Paths are normalized here; directory
// creation for targets is the file executor's concern.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"autobox/internal/config"
	"autobox/internal/errors"
)

// Layout describes the sandbox: one root directory containing a fixed set of
// named folders, plus the alias table used to normalize user tokens.
type Layout struct {
	Root    string   // absolute path of the sandbox root
	Folders []string // canonical folder names; the first is the default
	aliases map[string]string
}

// NewLayout builds a Layout from configuration. A relative sandbox root is
// resolved against baseDir so the sandbox lands next to the assistant's
// other state.
func NewLayout(baseDir string, cfg *config.Config) (*Layout, error) {
	if cfg == nil || len(cfg.Folders) == 0 {
		return nil, errors.NewInvalidRequest("sandbox requires at least one folder")
	}

	root := cfg.SandboxRoot
	if root == "" {
		root = "AutoBox"
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}
	root = filepath.Clean(root)

	aliases := make(map[string]string, len(cfg.Aliases))
	for token, folder := range cfg.Aliases {
		aliases[normalizeToken(token)] = folder
	}

	return &Layout{
		Root:    root,
		Folders: cfg.Folders,
		aliases: aliases,
	}, nil
}

// Ensure creates the sandbox root and every folder if absent.
func (l *Layout) Ensure() error {
	for _, folder := range l.Folders {
		if err := os.MkdirAll(filepath.Join(l.Root, folder), 0755); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// DefaultFolder returns the folder bare filenames default under.
func (l *Layout) DefaultFolder() string {
	return l.Folders[0]
}

// Canonical maps a token to a canonical folder name, consulting the alias
// table and the folder names themselves. Returns "" when the token names no
// folder. Matching is case- and whitespace-insensitive.
func (l *Layout) Canonical(token string) string {
	norm := normalizeToken(token)
	if norm == "" {
		return ""
	}
	for _, folder := range l.Folders {
		if normalizeToken(folder) == norm {
			return folder
		}
	}
	if folder, ok := l.aliases[norm]; ok {
		return folder
	}
	return ""
}

// Resolve maps a user-supplied path or folder alias to an absolute path
// confined to the sandbox. Rules, in order: an already-absolute sandbox path
// is returned unchanged; a canonical-folder or alias first segment roots the
// remainder under that folder; anything else is treated as a bare filename
// under the default folder. Empty input resolves to "". A path that does not
// land under one of the sandbox folders after cleaning is a sandbox
// violation, never silently repaired — this also catches ".." segments that
// would settle at the root between folders.
func (l *Layout) Resolve(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	// Normalize separators before any segment inspection.
	raw = strings.ReplaceAll(raw, "\\", "/")

	if filepath.IsAbs(raw) {
		abs := filepath.Clean(raw)
		if l.FolderOf(abs) == "" {
			return "", errors.NewSandboxViolation(raw)
		}
		return abs, nil
	}

	var abs string
	if first, rest, ok := strings.Cut(raw, "/"); ok {
		folder := l.Canonical(first)
		if folder == "" {
			// Unknown prefix: keep the path shape but root it under the
			// default folder rather than guessing at a new folder.
			abs = filepath.Join(l.Root, l.DefaultFolder(), filepath.FromSlash(raw))
		} else {
			abs = filepath.Join(l.Root, folder, filepath.FromSlash(rest))
		}
	} else if folder := l.Canonical(raw); folder != "" {
		abs = filepath.Join(l.Root, folder)
	} else {
		abs = filepath.Join(l.Root, l.DefaultFolder(), raw)
	}

	abs = filepath.Clean(abs)
	if l.FolderOf(abs) == "" {
		return "", errors.NewSandboxViolation(raw)
	}
	return abs, nil
}

// Within reports whether abs sits under the sandbox root. The root itself
// counts as inside.
func (l *Layout) Within(abs string) bool {
	abs = filepath.Clean(abs)
	if abs == l.Root {
		return true
	}
	return strings.HasPrefix(abs, l.Root+string(filepath.Separator))
}

// FolderOf returns the sandbox folder a resolved absolute path falls under,
// or "" when the path is outside every folder.
func (l *Layout) FolderOf(abs string) string {
	rel, err := filepath.Rel(l.Root, filepath.Clean(abs))
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	first := rel
	if idx := strings.IndexRune(rel, filepath.Separator); idx >= 0 {
		first = rel[:idx]
	}
	for _, folder := range l.Folders {
		if folder == first {
			return folder
		}
	}
	return ""
}

// Display renders a resolved absolute path back in the folder-relative form
// users see ("AB2/notes.txt"). Paths outside the sandbox are returned as-is.
func (l *Layout) Display(abs string) string {
	rel, err := filepath.Rel(l.Root, filepath.Clean(abs))
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return filepath.ToSlash(rel)
}

// normalizeToken lowercases and strips all whitespace from an alias token.
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "")
}
