package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements Store on a local SQLite database, giving a
// single builder a persistent cache across runs.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the cache database.
// Use ":memory:" for an in-memory database, or a file path for
// persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fetch_cache (
		key TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		valid INTEGER NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		body BLOB,
		error_kind TEXT NOT NULL DEFAULT '',
		error_status_code INTEGER NOT NULL DEFAULT 0,
		error_detail TEXT NOT NULL DEFAULT '',
		fetched_at INTEGER NOT NULL,
		failure_count INTEGER NOT NULL DEFAULT 0,
		first_failed_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_fetch_cache_url ON fetch_cache(url);
	CREATE INDEX IF NOT EXISTS idx_fetch_cache_fetched_at ON fetch_cache(fetched_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the cached entry for the key, or (nil, nil) when not cached.
func (s *SQLiteStore) Get(ctx context.Context, key Key) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT url, user_agent, valid, status, body,
		       error_kind, error_status_code, error_detail,
		       fetched_at, failure_count, first_failed_at
		FROM fetch_cache WHERE key = ?`,
		key.ID(),
	)

	var entry Entry
	var valid int
	var fetchedAt, firstFailedAt int64
	err := row.Scan(&entry.URL, &entry.UserAgent, &valid, &entry.Status, &entry.Body,
		&entry.ErrorKind, &entry.ErrorStatusCode, &entry.ErrorDetail,
		&fetchedAt, &entry.FailureCount, &firstFailedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not cached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}

	entry.Valid = valid != 0
	entry.FetchedAt = time.Unix(fetchedAt, 0)
	if firstFailedAt != 0 {
		entry.FirstFailedAt = time.Unix(firstFailedAt, 0)
	}
	return &entry, nil
}

// Put stores the entry, replacing any previous outcome for the key.
func (s *SQLiteStore) Put(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := 0
	if entry.Valid {
		valid = 1
	}
	var firstFailedAt int64
	if !entry.FirstFailedAt.IsZero() {
		firstFailedAt = entry.FirstFailedAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_cache (key, url, user_agent, valid, status, body,
			error_kind, error_status_code, error_detail,
			fetched_at, failure_count, first_failed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			url = excluded.url,
			user_agent = excluded.user_agent,
			valid = excluded.valid,
			status = excluded.status,
			body = excluded.body,
			error_kind = excluded.error_kind,
			error_status_code = excluded.error_status_code,
			error_detail = excluded.error_detail,
			fetched_at = excluded.fetched_at,
			failure_count = excluded.failure_count,
			first_failed_at = excluded.first_failed_at`,
		key.ID(), entry.URL, entry.UserAgent, valid, entry.Status, entry.Body,
		entry.ErrorKind, entry.ErrorStatusCode, entry.ErrorDetail,
		entry.FetchedAt.Unix(), entry.FailureCount, firstFailedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes the cached entry for the key.
func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM fetch_cache WHERE key = ?", key.ID()); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
