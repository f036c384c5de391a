// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists submitted searches and their outcomes in a
// local SQLite database, backing the --remember flag and the history
// command.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trial-scout/pkg/types"
)

const defaultMaxEntries = 20

// Entry is one remembered search.
type Entry struct {
	// ID is a client-assigned identifier for the row.
	ID string

	// RunID is the server-assigned run id, empty when the run never started.
	RunID string

	Condition string
	Term      string
	Gender    string
	Age       int
	Address   string

	// Eligible and Ineligible count the two result sides.
	Eligible   int
	Ineligible int

	CreatedAt time.Time
}

// Store manages the search history SQLite database.
type Store struct {
	db         *sql.DB
	maxEntries int
}

// Open opens or creates the history database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.HistoryConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	s := &Store{db: db, maxEntries: maxEntries}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS searches (
		id TEXT PRIMARY KEY,
		run_id TEXT,
		condition TEXT,
		term TEXT,
		gender TEXT,
		age INTEGER,
		address TEXT,
		eligible INTEGER,
		ineligible INTEGER,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record inserts one search into the history. A missing ID is assigned;
// a missing CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches
			(id, run_id, condition, term, gender, age, address, eligible, ineligible, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, e.Condition, e.Term, e.Gender, e.Age, e.Address,
		e.Eligible, e.Ineligible, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("recording search: %w", err)
	}
	return e, nil
}

// List returns the most recent searches, newest first. A limit of zero or
// less selects the configured maximum.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxEntries
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, condition, term, gender, age, address, eligible, ineligible, created_at
		 FROM searches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing search history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Condition, &e.Term, &e.Gender,
			&e.Age, &e.Address, &e.Eligible, &e.Ineligible, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return entries, nil
}
