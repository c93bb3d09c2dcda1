package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS responses (
	key       TEXT PRIMARY KEY,
	status    INTEGER NOT NULL,
	headers   BLOB,
	body      BLOB,
	stored_at INTEGER NOT NULL,
	ttl       INTEGER NOT NULL
)`

// SQLiteStore is a Store backed by a single-file sqlite database.
// It is the default backend: a local file survives process restarts
// and is easy to ship around with the data it describes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the entry for key, or ErrCacheMiss when absent or
// expired. Expired rows are purged on read.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		status           int
		headerJSON, body []byte
		storedAt, ttl    int64
	)

	row := s.db.QueryRowContext(ctx,
		`SELECT status, headers, body, stored_at, ttl FROM responses WHERE key = ?`, key)
	err := row.Scan(&status, &headerJSON, &body, &storedAt, &ttl)
	if errors.Is(err, sql.ErrNoRows) {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, &StorageError{Op: "get", Err: err}
	}

	entry := &Entry{
		StatusCode: status,
		Body:       body,
		StoredAt:   time.Unix(0, storedAt),
		TTL:        time.Duration(ttl),
	}
	if len(headerJSON) > 0 {
		var header http.Header
		if err := json.Unmarshal(headerJSON, &header); err != nil {
			CacheErrors.WithLabelValues("get").Inc()
			return nil, &StorageError{Op: "get", Err: err}
		}
		entry.Header = header
	}

	if entry.Expired(time.Now()) {
		// Still a miss when the purge fails; the failure is only counted
		if _, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE key = ?`, key); err != nil {
			CacheErrors.WithLabelValues("get").Inc()
		}
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("sqlite").Inc()
	return entry, nil
}

// Put stores entry under key. The single INSERT OR REPLACE statement
// keeps the replacement atomic with respect to concurrent Gets.
func (s *SQLiteStore) Put(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return &StorageError{Op: "put", Err: errors.New("entry cannot be nil")}
	}

	headerJSON, err := json.Marshal(entry.Header)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return &StorageError{Op: "put", Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO responses (key, status, headers, body, stored_at, ttl) VALUES (?, ?, ?, ?, ?, ?)`,
		key, entry.StatusCode, headerJSON, entry.Body, entry.StoredAt.UnixNano(), int64(entry.TTL))
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return &StorageError{Op: "put", Err: err}
	}

	CachePuts.WithLabelValues("sqlite").Inc()
	return nil
}

// Clear removes all entries.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM responses`); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
