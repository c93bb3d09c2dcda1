package cache

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testEntry(body string) *Entry {
	return &Entry{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"text/csv"}},
		Body:       []byte(body),
		StoredAt:   time.Now(),
	}
}

func TestSQLiteStore_PutAndGet(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	key := Key{Method: "GET", URL: "http://example.com/data"}.String()
	entry := testEntry("a,b,c\n1,2,3\n")

	if err := store.Put(ctx, key, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(got.Body) != string(entry.Body) {
		t.Errorf("Body = %q, want %q", got.Body, entry.Body)
	}
	if got.StatusCode != entry.StatusCode {
		t.Errorf("StatusCode = %d, want %d", got.StatusCode, entry.StatusCode)
	}
	if got.Header.Get("Content-Type") != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", got.Header.Get("Content-Type"))
	}
	if got.TTL != 0 {
		t.Errorf("TTL = %v, want 0", got.TTL)
	}
}

func TestSQLiteStore_Get_Miss(t *testing.T) {
	store := setupSQLiteStore(t)

	_, err := store.Get(context.Background(), "fetch:GET:http://example.com/absent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get on empty store = %v, want ErrCacheMiss", err)
	}
}

func TestSQLiteStore_Put_Overwrites(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	key := "fetch:GET:http://example.com/data"

	if err := store.Put(ctx, key, testEntry("old")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, key, testEntry("new")); err != nil {
		t.Fatalf("Second Put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != "new" {
		t.Errorf("Body = %q, want %q (whole entry replaced)", got.Body, "new")
	}
}

func TestSQLiteStore_TTLExpiry(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	key := "fetch:GET:http://example.com/data"
	entry := testEntry("stale soon")
	entry.StoredAt = time.Now().Add(-2 * time.Hour)
	entry.TTL = time.Hour

	if err := store.Put(ctx, key, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	_, err := store.Get(ctx, key)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get of expired entry = %v, want ErrCacheMiss", err)
	}

	// The expired row is purged, not just hidden
	_, err = store.Get(ctx, key)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after purge = %v, want ErrCacheMiss", err)
	}
}

func TestSQLiteStore_NoTTLNeverExpires(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	key := "fetch:GET:http://example.com/data"
	entry := testEntry("keeper")
	entry.StoredAt = time.Now().Add(-24 * 30 * time.Hour)

	if err := store.Put(ctx, key, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Body) != "keeper" {
		t.Errorf("Body = %q, want %q", got.Body, "keeper")
	}
}

func TestSQLiteStore_Clear(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	keys := []string{
		"fetch:GET:http://example.com/a",
		"fetch:GET:http://example.com/b",
		"fetch:GET:http://example.com/c",
	}
	for _, key := range keys {
		if err := store.Put(ctx, key, testEntry("data for "+key)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for _, key := range keys {
		if _, err := store.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Get(%s) after Clear = %v, want ErrCacheMiss", key, err)
		}
	}
}

func TestSQLiteStore_Put_NilEntry(t *testing.T) {
	store := setupSQLiteStore(t)

	err := store.Put(context.Background(), "fetch:GET:http://example.com", nil)
	if err == nil {
		t.Fatal("Put with nil entry should return error")
	}

	var se *StorageError
	if !errors.As(err, &se) {
		t.Errorf("Put error = %T, want *StorageError", err)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	key := "fetch:GET:http://example.com/data"
	if err := store.Put(ctx, key, testEntry("durable")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got.Body) != "durable" {
		t.Errorf("Body = %q, want %q", got.Body, "durable")
	}
}
