// Package store persists track records and their audio payloads in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

var (
	// ErrStorageUnavailable is returned when the store is not open.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotFound is returned when a track id has no record.
	ErrNotFound = errors.New("track not found")
	// ErrTransactionAborted wraps any failure of a batch write.
	ErrTransactionAborted = errors.New("transaction aborted")
	// ErrSchemaTooNew is returned when the database was written by a newer version.
	ErrSchemaTooNew = errors.New("database schema is newer than supported")
)

const memoryPath = ":memory:"

// Store is the durable track store. The zero value is not usable; create
// one with New and call Open before any other operation.
type Store struct {
	path   string
	logger *zap.Logger

	mu sync.RWMutex
	db *sql.DB
}

// New returns a closed store backed by the SQLite file at path.
// Use ":memory:" for a private in-memory database.
func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger.Named("store")}
}

// Open opens the database and upgrades its schema. Calling Open on an
// already open store is a no-op.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	if s.path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", dsn(s.path))
	if err != nil {
		return err
	}
	if s.path == memoryPath {
		// Every connection to :memory: is a distinct database.
		db.SetMaxOpenConns(1)
	}

	from, to, err := migrate(ctx, db)
	if err != nil {
		db.Close()
		return err
	}
	if from != to {
		s.logger.Info("schema upgraded", zap.Int("from", from), zap.Int("to", to))
	}

	s.db = db
	s.logger.Debug("opened", zap.String("path", s.path), zap.Int("version", to))
	return nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	if path != memoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return path + "?" + q.Encode()
}

// Close closes the database. Subsequent operations fail with
// ErrStorageUnavailable until Open is called again.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// IsOpen reports whether the store accepts operations.
func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// handle returns the open database or ErrStorageUnavailable.
func (s *Store) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrStorageUnavailable
	}
	return s.db, nil
}

// Version returns the persisted schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	return userVersion(ctx, db)
}

// Count returns the number of stored tracks.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return n, nil
}
