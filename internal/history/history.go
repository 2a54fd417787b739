// Package history keeps a durable log of dispatched steps in SQLite so the
// status and history views can show what the assistant actually did.
package history

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Entry is one recorded step outcome.
type Entry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Command   string `json:"command"` // the original user text
	Action    string `json:"action"`
	Target    string `json:"target,omitempty"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"` // failure reason or result note
}

// Init opens the SQLite database at baseDir/autobox.db, creating the schema
// if needed. The baseDir parameter allows tests to use t.TempDir().
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "autobox.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS action_log (
			id      TEXT PRIMARY KEY,
			ts      INTEGER NOT NULL,
			command TEXT NOT NULL,
			action  TEXT NOT NULL,
			target  TEXT NOT NULL DEFAULT '',
			ok      INTEGER NOT NULL,
			detail  TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_action_log_ts ON action_log(ts DESC);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	_ = os.Chmod(dbPath, 0600)
	return db, nil
}

// Record inserts a step outcome and returns its generated ID.
func Record(db *sql.DB, e Entry) (string, error) {
	id, err := newULID()
	if err != nil {
		return "", err
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}

	_, err = db.Exec(
		`INSERT INTO action_log (id, ts, command, action, target, ok, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, e.Timestamp, e.Command, e.Action, e.Target, boolToInt(e.OK), e.Detail,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record entry: %w", err)
	}
	return id, nil
}

// Recent returns the newest entries, most recent first.
func Recent(db *sql.DB, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(
		`SELECT id, ts, command, action, target, ok, detail FROM action_log ORDER BY ts DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ok int
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Command, &e.Action, &e.Target, &ok, &e.Detail); err != nil {
			return nil, err
		}
		e.OK = ok != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the total number of recorded entries.
func Count(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM action_log`).Scan(&n)
	return n, err
}

// entropy is shared so IDs generated within the same millisecond still sort
// in insertion order. Single active thread of control; no locking needed.
var entropy = ulid.Monotonic(rand.Reader, 0)

func newULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
