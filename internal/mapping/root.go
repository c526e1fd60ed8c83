package mapping

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"vis4d/internal/config"
)

// ResolveRoot picks the cache root: explicit when set, otherwise
// $VIS4D_CACHE_DIR, then the user cache directory namespaced by application.
func ResolveRoot(explicit string) (string, error) {
	root := strings.TrimSpace(explicit)
	if root == "" {
		root = config.DefaultCacheDir()
	}
	return config.ExpandPath(root)
}

// Usage reports the capacity of the volume holding a cache root.
type Usage struct {
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// FreeSpace reports the volume usage for root. A root that does not exist yet
// is measured at its nearest existing parent.
func FreeSpace(root string) (Usage, error) {
	path := root
	for {
		var stat unix.Statfs_t
		err := unix.Statfs(path, &stat)
		if err == nil {
			return Usage{
				TotalBytes: stat.Blocks * uint64(stat.Bsize),
				FreeBytes:  stat.Bavail * uint64(stat.Bsize),
			}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Usage{}, fmt.Errorf("statfs %s: %w", path, err)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return Usage{}, fmt.Errorf("statfs %s: %w", root, err)
		}
		path = parent
	}
}
