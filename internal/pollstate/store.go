// Package pollstate persists the last seen revision per polled source, so
// change detection across process runs reports each change exactly once.
package pollstate

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps poll cursors in SQLite. Use ":memory:" for an in-memory
// database, or a file path for persistent storage.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens the cursor database and creates the schema when missing.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS poll_cursors (
		vcs_type   TEXT NOT NULL,
		repository TEXT NOT NULL,
		refspec    TEXT NOT NULL,
		last_seen  TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (vcs_type, repository, refspec)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LastSeen returns the stored cursor for one polled source, empty when the
// source was never polled.
func (s *Store) LastSeen(ctx context.Context, vcsType, repository, refspec string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lastSeen string
	err := s.db.QueryRowContext(ctx,
		"SELECT last_seen FROM poll_cursors WHERE vcs_type = ? AND repository = ? AND refspec = ?",
		vcsType, repository, refspec,
	).Scan(&lastSeen)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query poll cursor: %w", err)
	}
	return lastSeen, nil
}

// SetLastSeen stores the cursor for one polled source, replacing any
// previous value.
func (s *Store) SetLastSeen(ctx context.Context, vcsType, repository, refspec, revision string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO poll_cursors (vcs_type, repository, refspec, last_seen, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (vcs_type, repository, refspec)
		 DO UPDATE SET last_seen = excluded.last_seen, updated_at = excluded.updated_at`,
		vcsType, repository, refspec, revision, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store poll cursor: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
