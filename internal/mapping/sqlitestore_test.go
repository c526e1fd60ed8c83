package mapping

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "nested", "data_mapping.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLiteStore(t)
	key := Key{Kind: "Scalabel", Hash: "feedface"}

	if _, ok, err := store.Lookup(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Store(ctx, key, []byte("v1")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := store.Store(ctx, key, []byte("v2-longer")); err != nil {
		t.Fatalf("Store replace failed: %v", err)
	}
	data, ok, err := store.Lookup(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(data) != "v2-longer" {
		t.Fatalf("unexpected payload: %q", data)
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Size != int64(len("v2-longer")) {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be parsed")
	}
}

func TestSQLiteStoreRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLiteStore(t)
	for _, key := range []Key{{"Scalabel", "a"}, {"Scalabel", "b"}, {"COCO", "c"}} {
		if err := store.Store(ctx, key, []byte("x")); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	if err := store.Remove(ctx, Key{"Scalabel", "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Remove(ctx, Key{"COCO", "c"}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	removed, err := store.Clear(ctx, "")
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("unexpected removed count: got %d want 2", removed)
	}
}

type codedError struct{ code int }

func (e codedError) Error() string { return "sqlite error" }
func (e codedError) Code() int     { return e.code }

func TestRetryOnBusy(t *testing.T) {
	attempts := 0
	err := retryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return codedError{code: sqliteBusyCode}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("unexpected attempts: got %d want 3", attempts)
	}

	attempts = 0
	permanent := errors.New("no such table")
	if err := retryOnBusy(context.Background(), func() error {
		attempts++
		return permanent
	}); !errors.Is(err, permanent) || attempts != 1 {
		t.Fatalf("expected single attempt for non-busy error, got attempts=%d err=%v", attempts, err)
	}
}
