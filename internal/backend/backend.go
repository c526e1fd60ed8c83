package backend

import (
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spf13/afero"
)

// Backend provides sample bytes by path.
type Backend interface {
	Get(path string) ([]byte, error)
	Exists(path string) bool
	Set(path string, data []byte) error
}

// FileBackend serves files from an afero file system.
type FileBackend struct {
	fs afero.Fs
}

// NewFileBackend returns a backend over fsys. A nil fsys uses the OS file system.
func NewFileBackend(fsys afero.Fs) *FileBackend {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileBackend{fs: fsys}
}

// Get reads the file at path. A missing file yields an error wrapping
// fs.ErrNotExist.
func (b *FileBackend) Get(path string) ([]byte, error) {
	data, err := afero.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether path names a regular file.
func (b *FileBackend) Exists(path string) bool {
	info, err := b.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// Set writes data to path, creating parent directories.
func (b *FileBackend) Set(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
	}
	if err := afero.WriteFile(b.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Cached keeps recently read files in memory. Reference frames of adjacent
// clips overlap, so one worker reads the same image several times in a row.
type Cached struct {
	next  Backend
	cache *lru.Cache
}

// NewCached wraps next with an LRU of up to entries files.
func NewCached(next Backend, entries int) (*Cached, error) {
	cache, err := lru.New(entries)
	if err != nil {
		return nil, fmt.Errorf("create backend cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Get returns the cached bytes for path or reads them through.
func (c *Cached) Get(path string) ([]byte, error) {
	if value, ok := c.cache.Get(path); ok {
		return value.([]byte), nil
	}
	data, err := c.next.Get(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(path, data)
	return data, nil
}

// Exists reports whether path is cached or present in the wrapped backend.
func (c *Cached) Exists(path string) bool {
	return c.cache.Contains(path) || c.next.Exists(path)
}

// Set writes through and refreshes the cached copy.
func (c *Cached) Set(path string, data []byte) error {
	if err := c.next.Set(path, data); err != nil {
		c.cache.Remove(path)
		return err
	}
	c.cache.Add(path, data)
	return nil
}

// Len reports the number of cached files.
func (c *Cached) Len() int {
	return c.cache.Len()
}
