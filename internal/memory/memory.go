// Package memory persists the session's "last touched" state and resolves
// pronoun-like references against it.
package memory

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// SessionMemory records the most recent file, folder, app, and URL the
// assistant touched. It drives cross-turn reference resolution ("that
// file"). Slots survive process restarts and never expire.
type SessionMemory struct {
	LastCreatedFile string `json:"last_created_file,omitempty"`
	LastWrittenFile string `json:"last_written_file,omitempty"`
	LastReadFile    string `json:"last_read_file,omitempty"`
	LastMovedFile   string `json:"last_moved_file,omitempty"`
	LastTouchedFile string `json:"last_touched_file,omitempty"`
	LastFolder      string `json:"last_folder,omitempty"`
	LastApp         string `json:"last_app,omitempty"`
	LastURL         string `json:"last_url,omitempty"`
	LastSearch      string `json:"last_search,omitempty"`
}

// merge applies non-empty fields of partial over m. Empty fields never
// clear a slot; updates are partial by contract.
func (m *SessionMemory) merge(partial SessionMemory) {
	apply := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	apply(&m.LastCreatedFile, partial.LastCreatedFile)
	apply(&m.LastWrittenFile, partial.LastWrittenFile)
	apply(&m.LastReadFile, partial.LastReadFile)
	apply(&m.LastMovedFile, partial.LastMovedFile)
	apply(&m.LastTouchedFile, partial.LastTouchedFile)
	apply(&m.LastFolder, partial.LastFolder)
	apply(&m.LastApp, partial.LastApp)
	apply(&m.LastURL, partial.LastURL)
	apply(&m.LastSearch, partial.LastSearch)
}

// Store reads and rewrites the persisted session record. Single process,
// single session: last writer wins, no versioning.
type Store struct {
	path string
}

// NewStore creates a store persisting to baseDir/memory.json.
func NewStore(baseDir string) *Store {
	return &Store{path: filepath.Join(baseDir, "memory.json")}
}

// Load reads the persisted record. An absent or unreadable file is
// equivalent to an empty record; resolution always starts from something.
func (s *Store) Load() SessionMemory {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return SessionMemory{}
	}
	var m SessionMemory
	if err := json.Unmarshal(data, &m); err != nil {
		return SessionMemory{}
	}
	return m
}

// Update merges the non-empty fields of partial into the persisted record
// and rewrites it. The full record is written to a temp file and renamed
// over the old one, so a failed write never corrupts unrelated slots.
func (s *Store) Update(partial SessionMemory) error {
	current := s.Load()
	current.merge(partial)

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Clear removes the persisted record.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
