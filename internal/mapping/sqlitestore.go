package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const mappingSchema = `
CREATE TABLE IF NOT EXISTS mappings (
	kind TEXT NOT NULL,
	hash TEXT NOT NULL,
	payload BLOB NOT NULL,
	size_bytes INTEGER NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (kind, hash)
)`

// SQLiteStore keeps every mapping in one SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create mapping db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path, now: time.Now}
	if err := retryOnBusy(ctx, func() error {
		_, execErr := db.ExecContext(ctx, mappingSchema)
		return execErr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init mapping schema: %w", err)
	}
	return store, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup reads the payload for key.
func (s *SQLiteStore) Lookup(ctx context.Context, key Key) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	var payload []byte
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT payload FROM mappings WHERE kind = ? AND hash = ?`,
			key.Kind, key.Hash).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read mapping %s: %w", key, err)
	}
	return payload, true, nil
}

// Store inserts or replaces the payload for key.
func (s *SQLiteStore) Store(ctx context.Context, key Key, payload []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	updated := s.now().UTC().Format(time.RFC3339Nano)
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
INSERT INTO mappings (kind, hash, payload, size_bytes, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(kind, hash) DO UPDATE SET
	payload = excluded.payload,
	size_bytes = excluded.size_bytes,
	updated_at = excluded.updated_at`,
			key.Kind, key.Hash, payload, len(payload), updated)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("store mapping %s: %w", key, err)
	}
	return nil
}

// Entries lists stored mappings sorted by kind and hash.
func (s *SQLiteStore) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		entries = entries[:0]
		rows, err := s.db.QueryContext(ctx,
			`SELECT kind, hash, size_bytes, updated_at FROM mappings ORDER BY kind, hash`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				entry   Entry
				updated string
			)
			if err := rows.Scan(&entry.Key.Kind, &entry.Key.Hash, &entry.Size, &updated); err != nil {
				return err
			}
			if ts, parseErr := time.Parse(time.RFC3339Nano, updated); parseErr == nil {
				entry.UpdatedAt = ts
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return entries, nil
}

// Remove deletes the mapping for key.
func (s *SQLiteStore) Remove(ctx context.Context, key Key) error {
	if err := validateKey(key); err != nil {
		return err
	}
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			`DELETE FROM mappings WHERE kind = ? AND hash = ?`, key.Kind, key.Hash)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("remove mapping %s: %w", key, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// Clear removes every mapping of kind, or all mappings when kind is empty.
func (s *SQLiteStore) Clear(ctx context.Context, kind string) (int, error) {
	query := `DELETE FROM mappings`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("clear mappings: %w", err)
	}
	return int(affected), nil
}
