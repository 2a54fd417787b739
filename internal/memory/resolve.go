package memory

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/xrash/smetrics"

	"autobox/internal/sandbox"
)

// similarityThreshold is the minimum normalized similarity for a fuzzy
// filename match. Candidates below it are rejected and the caller gets the
// original token back.
const similarityThreshold = 0.6

// deictic phrases resolve to the most recently created (else touched) file.
var deictic = map[string]bool{
	"that":      true,
	"that file": true,
	"last":      true,
	"last file": true,
}

// Resolver resolves pronoun-like references, folder aliases, and near-miss
// filenames into concrete names. Resolution is best-effort: an input that
// matches nothing comes back unchanged, deferring any failure to the
// executor.
type Resolver struct {
	store      *Store
	layout     *sandbox.Layout
	extraRoots []string // additional scan roots kept for legacy layouts
}

// NewResolver creates a resolver over the given session store and sandbox.
// extraRoots lists directories outside the sandbox whose filenames also
// join the fuzzy-match candidate set (read-only; matching a name there
// never authorizes I/O outside the sandbox).
func NewResolver(store *Store, layout *sandbox.Layout, extraRoots ...string) *Resolver {
	return &Resolver{store: store, layout: layout, extraRoots: extraRoots}
}

// Resolve maps a reference to a candidate name. Priority: deictic phrase,
// folder alias, fuzzy filename match, then the input unchanged. Pure with
// respect to session memory except for the deictic slot read.
func (r *Resolver) Resolve(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return name
	}
	lower := strings.ToLower(trimmed)

	if deictic[lower] {
		mem := r.store.Load()
		if mem.LastCreatedFile != "" {
			return mem.LastCreatedFile
		}
		if mem.LastTouchedFile != "" {
			return mem.LastTouchedFile
		}
		return name
	}

	if folder := r.layout.Canonical(lower); folder != "" {
		return folder
	}

	if closest := r.closestFile(trimmed); closest != "" {
		return closest
	}

	return name
}

// closestFile fuzzy-matches name against every filename under the sandbox
// root and the extra roots. Returns "" when no candidate clears the
// threshold. Ties keep the first candidate in walk order, so resolution
// stays deterministic.
func (r *Resolver) closestFile(name string) string {
	best := ""
	bestScore := -1.0

	consider := func(candidate string) {
		score := Similarity(name, candidate)
		if score < similarityThreshold {
			return
		}
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	roots := append([]string{r.layout.Root}, r.extraRoots...)
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries just shrink the candidate set
			}
			if !d.IsDir() {
				consider(d.Name())
			}
			return nil
		})
	}

	return best
}

// Similarity scores two strings in [0, 1] using edit distance with
// substitutions counted as delete+insert, normalized by combined length.
// Comparison is case-insensitive.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 1 - float64(dist)/float64(total)
}
