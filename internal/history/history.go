// Package history persists gate decisions to a local SQLite database so
// past verdicts can be inspected after the fact.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xdg/toolgate/internal/pathutil"
	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS decisions (
    id          TEXT PRIMARY KEY,
    created_at  TEXT NOT NULL,
    tool        TEXT NOT NULL,
    action      TEXT NOT NULL,
    decision    TEXT NOT NULL,
    stage       TEXT NOT NULL DEFAULT '',
    reason      TEXT NOT NULL DEFAULT '',
    duration_ns INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at);
`

// Record is one persisted gate decision.
type Record struct {
	ID        string
	Timestamp time.Time
	Tool      string
	Action    string
	Decision  string
	Stage     string
	Reason    string
	Duration  time.Duration
}

// Store wraps a SQLite database holding decision records.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database path under the XDG state
// directory.
func DefaultPath() string {
	return filepath.Join(pathutil.StateDir(), "toolgate", "history.db")
}

// Open opens (or creates) a SQLite database at dbPath and ensures the
// schema exists.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Save inserts a decision record, replacing any prior record with the
// same ID.
func (s *Store) Save(rec *Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO decisions
			(id, created_at, tool, action, decision, stage, reason, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.Format(time.RFC3339Nano),
		rec.Tool,
		rec.Action,
		rec.Decision,
		rec.Stage,
		rec.Reason,
		rec.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("save decision: %w", err)
	}
	return nil
}

// Recent returns up to limit decision records, newest first. A
// non-positive limit returns all records.
func (s *Store) Recent(limit int) ([]Record, error) {
	query := `
		SELECT id, created_at, tool, action, decision, stage, reason, duration_ns
		FROM decisions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var createdAt string
		var durationNS int64
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Tool, &rec.Action,
			&rec.Decision, &rec.Stage, &rec.Reason, &durationNS); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		rec.Duration = time.Duration(durationNS)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Clear deletes all decision records and reports how many were removed.
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec("DELETE FROM decisions")
	if err != nil {
		return 0, fmt.Errorf("clear decisions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
