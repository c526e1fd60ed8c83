package mapping

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	mappingDirName = "data_mapping"
	mappingExt     = ".json.sz"
)

// FileStore keeps one file per mapping below <root>/data_mapping/<Kind>/.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore returns a store rooted at root. A nil fs uses the OS file system.
func NewFileStore(fsys afero.Fs, root string) *FileStore {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileStore{fs: fsys, root: root}
}

// Root returns the cache root directory.
func (s *FileStore) Root() string {
	return s.root
}

// Dir returns the directory holding every mapping.
func (s *FileStore) Dir() string {
	return filepath.Join(s.root, mappingDirName)
}

// Path returns the file that holds key.
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.Dir(), key.Kind, key.Hash+mappingExt)
}

// Lookup reads the payload for key.
func (s *FileStore) Lookup(ctx context.Context, key Key) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := afero.ReadFile(s.fs, s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read mapping %s: %w", key, err)
	}
	return data, true, nil
}

// Store writes payload atomically through a uniquely named temporary file.
func (s *FileStore) Store(ctx context.Context, key Key, payload []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.Path(key)
	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create mapping directory: %w", err)
	}

	tmp := target + "." + uuid.NewString() + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, payload, 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write mapping temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename mapping file: %w", err)
	}
	return nil
}

// Entries lists stored mappings sorted by kind and hash.
func (s *FileStore) Entries(ctx context.Context) ([]Entry, error) {
	dir := s.Dir()
	var entries []Entry
	err := afero.Walk(s.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), mappingExt) {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		kind := filepath.Dir(rel)
		if kind == "." || strings.ContainsRune(kind, filepath.Separator) {
			return nil
		}
		entries = append(entries, Entry{
			Key:       Key{Kind: kind, Hash: strings.TrimSuffix(info.Name(), mappingExt)},
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	sortEntries(entries)
	return entries, nil
}

// Remove deletes the mapping for key.
func (s *FileStore) Remove(ctx context.Context, key Key) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(s.Path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("remove mapping %s: %w", key, err)
	}
	return nil
}

// Clear removes every mapping of kind, or all mappings when kind is empty.
func (s *FileStore) Clear(ctx context.Context, kind string) (int, error) {
	if kind != "" {
		if err := validateSegment("kind", kind); err != nil {
			return 0, err
		}
	}
	entries, err := s.Entries(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if kind != "" && entry.Key.Kind != kind {
			continue
		}
		if err := s.Remove(ctx, entry.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Key.Kind != entries[j].Key.Kind {
			return entries[i].Key.Kind < entries[j].Key.Kind
		}
		return entries[i].Key.Hash < entries[j].Key.Hash
	})
}
