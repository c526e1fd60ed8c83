package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"vis4d/internal/config"
	"vis4d/internal/datalist"
)

// OpenStore opens the store selected by cfg.Mapping.Store. The returned close
// function is always non-nil.
func OpenStore(ctx context.Context, cfg *config.Config) (Inspector, func() error, error) {
	root, err := ResolveRoot(cfg.Paths.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Mapping.Store {
	case "sqlite":
		store, err := OpenSQLiteStore(ctx, cfg.MappingDBPath())
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "", "file":
		return NewFileStore(afero.NewOsFs(), root), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported mapping store %q", cfg.Mapping.Store)
	}
}

// OptionsFromConfig translates the [mapping] section into loader options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) LoaderOptions {
	opts := LoaderOptions{
		HashLength: cfg.Mapping.HashLength,
		Logger:     logger,
	}
	if cfg.Mapping.LockTimeoutSeconds > 0 {
		opts.LockTimeout = time.Duration(cfg.Mapping.LockTimeoutSeconds) * time.Second
	}
	if root, err := ResolveRoot(cfg.Paths.CacheDir); err == nil {
		opts.Locker = NewFileLocker(root)
	}
	if !cfg.Mapping.Serialize {
		opts.ListOptions = append(opts.ListOptions, datalist.WithoutSerialization())
		if cfg.Mapping.DeepCopy {
			opts.ListOptions = append(opts.ListOptions, datalist.WithDeepCopy())
		}
	}
	return opts
}
