package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vis4d/internal/config"
)

func TestLoadDefaultConfigUsesCacheEnvAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	cacheRoot := filepath.Join(t.TempDir(), "cache")
	t.Setenv(config.CacheDirEnv, cacheRoot)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Paths.CacheDir != cacheRoot {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, cacheRoot)
	}
	if !filepath.IsAbs(cfg.Paths.DataRoot) {
		t.Fatalf("expected absolute data root, got %q", cfg.Paths.DataRoot)
	}
	if !cfg.Mapping.UseCache || !cfg.Mapping.Serialize {
		t.Fatal("expected cache and serialization enabled by default")
	}
	if cfg.Mapping.HashLength != 16 {
		t.Fatalf("unexpected hash length: %d", cfg.Mapping.HashLength)
	}
	if cfg.Sampling.Type != "uniform" || cfg.Sampling.FrameOrder != "key_first" {
		t.Fatalf("unexpected sampling defaults: %+v", cfg.Sampling)
	}
	if cfg.Loader.RetryWarnAfter != 5 || cfg.Loader.MaxRetries != 0 {
		t.Fatalf("unexpected loader defaults: %+v", cfg.Loader)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Paths.CacheDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected cache directory %q to exist: %v", cfg.Paths.CacheDir, err)
	}
}

func TestDefaultCacheDirFallsBackToUserCache(t *testing.T) {
	t.Setenv(config.CacheDirEnv, "")
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	got := config.DefaultCacheDir()
	if got != filepath.Join(xdg, "vis4d") {
		t.Fatalf("unexpected cache dir: got %q want %q", got, filepath.Join(xdg, "vis4d"))
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vis4d.toml")

	type payload struct {
		Paths struct {
			CacheDir string `toml:"cache_dir"`
		} `toml:"paths"`
		Mapping struct {
			Store string `toml:"store"`
		} `toml:"mapping"`
		Sampling struct {
			Type       string `toml:"type"`
			Scope      int    `toml:"scope"`
			NumRefImgs int    `toml:"num_ref_imgs"`
			FrameOrder string `toml:"frame_order"`
		} `toml:"sampling"`
	}
	custom := payload{}
	custom.Paths.CacheDir = filepath.Join(tempDir, "mappings")
	custom.Mapping.Store = " SQLite "
	custom.Sampling.Type = "Sequential"
	custom.Sampling.Scope = 2
	custom.Sampling.NumRefImgs = 3
	custom.Sampling.FrameOrder = "temporal"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %s to be read, got resolved=%q exists=%v", configPath, resolved, exists)
	}
	if cfg.Mapping.Store != "sqlite" {
		t.Fatalf("expected normalized store, got %q", cfg.Mapping.Store)
	}
	if cfg.Sampling.Type != "sequential" || cfg.Sampling.NumRefImgs != 3 {
		t.Fatalf("unexpected sampling config: %+v", cfg.Sampling)
	}
	if cfg.MappingDBPath() != filepath.Join(tempDir, "mappings", "data_mapping.db") {
		t.Fatalf("unexpected db path: %q", cfg.MappingDBPath())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "vis4d.toml")
	if err := os.WriteFile(configPath, []byte("[sampling]\nwindow = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"store", func(c *config.Config) { c.Mapping.Store = "redis" }, "mapping.store"},
		{"hash length", func(c *config.Config) { c.Mapping.HashLength = 65 }, "mapping.hash_length"},
		{"sampling type", func(c *config.Config) { c.Sampling.Type = "random" }, "sampling.type"},
		{"frame order", func(c *config.Config) { c.Sampling.FrameOrder = "reverse" }, "sampling.frame_order"},
		{"negative scope", func(c *config.Config) { c.Sampling.Scope = -1 }, "sampling.scope"},
		{"window too small", func(c *config.Config) { c.Sampling.Scope = 1; c.Sampling.NumRefImgs = 3 }, "uniform window"},
		{"max retries", func(c *config.Config) { c.Loader.MaxRetries = -2 }, "loader.max_retries"},
		{"flip prob", func(c *config.Config) { c.Augment.FlipProb = 1.5 }, "augment.flip_prob"},
		{"scale order", func(c *config.Config) { c.Augment.ScaleMin = 2; c.Augment.ScaleMax = 1 }, "augment.scale_min"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	t.Setenv(config.CacheDirEnv, t.TempDir())

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Mapping.Store != "file" {
		t.Fatalf("unexpected store in sample config: %q", cfg.Mapping.Store)
	}
}
