package mapping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned when another process holds the generation lock
// for longer than the caller is willing to wait.
var ErrLockTimeout = errors.New("timed out waiting for mapping lock")

// Locker serializes mapping generation for one key across processes.
type Locker interface {
	// Lock blocks until the key is held or ctx ends. The returned function
	// releases the lock.
	Lock(ctx context.Context, key Key) (func() error, error)
}

const defaultLockRetryDelay = 100 * time.Millisecond

// FileLocker takes advisory file locks at <root>/data_mapping/<Kind>/<hash>.lock.
// The root must live on the OS file system.
type FileLocker struct {
	Root       string
	RetryDelay time.Duration
}

// NewFileLocker returns a locker that places lock files under root.
func NewFileLocker(root string) *FileLocker {
	return &FileLocker{Root: root, RetryDelay: defaultLockRetryDelay}
}

// Path returns the lock file used for key.
func (l *FileLocker) Path(key Key) string {
	return filepath.Join(l.Root, mappingDirName, key.Kind, key.Hash+".lock")
}

// Lock acquires the lock for key.
func (l *FileLocker) Lock(ctx context.Context, key Key) (func() error, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	path := l.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	delay := l.RetryDelay
	if delay <= 0 {
		delay = defaultLockRetryDelay
	}
	lock := flock.New(path)
	ok, err := lock.TryLockContext(ctx, delay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}
		return nil, fmt.Errorf("acquire mapping lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
	}
	return lock.Unlock, nil
}
