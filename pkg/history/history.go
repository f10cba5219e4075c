// Package history keeps a SQLite ledger of scrambled images.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultLimit is used by Recent for non-positive limits.
const DefaultLimit = 20

// Store wraps the database connection.
type Store struct {
	db *sql.DB
}

// Entry is one scrambled image.
type Entry struct {
	ID     int64
	Source string
	Output string
	// Tags lists the stages that ran, in order.
	Tags []string
	// Columns and Rows are zero when the puzzle stage did not run.
	Columns   int
	Rows      int
	Seed      int64
	CreatedAt time.Time
}

// Open creates or opens the database at dbPath, creating parent
// directories and the schema as needed.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			output TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			grid_cols INTEGER NOT NULL DEFAULT 0,
			grid_rows INTEGER NOT NULL DEFAULT 0,
			seed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores e and returns its ID. ID and CreatedAt are ignored.
func (s *Store) Record(e Entry) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO runs (source, output, tags, grid_cols, grid_rows, seed) VALUES (?, ?, ?, ?, ?, ?)",
		e.Source, e.Output, strings.Join(e.Tags, ","), e.Columns, e.Rows, e.Seed,
	)
	if err != nil {
		return 0, fmt.Errorf("history: cannot record run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.Query(
		`SELECT id, source, output, tags, grid_cols, grid_rows, seed, created_at
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: cannot query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var tags string
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Source, &e.Output, &tags, &e.Columns, &e.Rows, &e.Seed, &createdAt); err != nil {
			return nil, fmt.Errorf("history: cannot scan row: %w", err)
		}
		if tags != "" {
			e.Tags = strings.Split(tags, ",")
		}
		switch v := createdAt.(type) {
		case time.Time:
			e.CreatedAt = v
		case string:
			if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
				e.CreatedAt = parsed
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: row iteration error: %w", err)
	}
	return entries, nil
}
