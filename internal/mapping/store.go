package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Remove when no mapping exists for the key.
var ErrNotFound = errors.New("mapping not found")

// Store persists encoded mappings.
type Store interface {
	// Lookup returns the payload for key and whether it was present.
	Lookup(ctx context.Context, key Key) ([]byte, bool, error)
	// Store writes payload for key, replacing any previous value.
	Store(ctx context.Context, key Key, payload []byte) error
}

// Inspector is implemented by stores that can enumerate and prune entries.
type Inspector interface {
	Store
	Entries(ctx context.Context) ([]Entry, error)
	Remove(ctx context.Context, key Key) error
	// Clear removes every entry of kind, or all entries when kind is empty.
	// It returns the number of entries removed.
	Clear(ctx context.Context, kind string) (int, error)
}

// Entry summarizes a stored mapping.
type Entry struct {
	Key       Key       `json:"key"`
	Size      int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

func validateKey(key Key) error {
	if err := validateSegment("kind", key.Kind); err != nil {
		return err
	}
	return validateSegment("hash", key.Hash)
}

func validateSegment(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("mapping key %s is required", name)
	}
	if strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
		return fmt.Errorf("mapping key %s %q is not a valid path segment", name, value)
	}
	return nil
}
