package testsupport

import (
	"path/filepath"
	"testing"

	"vis4d/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.DataRoot = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Loader.Seed = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return builder.cfg
}

// WithStore selects the mapping store ("file" or "sqlite").
func WithStore(store string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mapping.Store = store
	}
}

// WithSampling configures reference sampling.
func WithSampling(kind string, scope, numRefImgs int, frameOrder string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sampling.Type = kind
		b.cfg.Sampling.Scope = scope
		b.cfg.Sampling.NumRefImgs = numRefImgs
		b.cfg.Sampling.FrameOrder = frameOrder
	}
}

// WithoutCache disables the mapping cache.
func WithoutCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mapping.UseCache = false
	}
}

// WithInference switches the loader out of training mode.
func WithInference() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Loader.Training = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
