package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// CacheDirEnv overrides the mapping cache root when paths.cache_dir is unset.
const CacheDirEnv = "VIS4D_CACHE_DIR"

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	DataRoot string `toml:"data_root"`
	LogDir   string `toml:"log_dir"`
}

// Mapping controls the data-mapping cache.
type Mapping struct {
	UseCache           bool   `toml:"use_cache"`
	Store              string `toml:"store"` // "file" or "sqlite"
	HashLength         int    `toml:"hash_length"`
	Serialize          bool   `toml:"serialize"`
	DeepCopy           bool   `toml:"deepcopy"`
	LockTimeoutSeconds int    `toml:"lock_timeout_seconds"`
}

// Sampling describes reference-view selection for multi-frame training.
type Sampling struct {
	Type       string `toml:"type"` // "uniform" or "sequential"
	Scope      int    `toml:"scope"`
	NumRefImgs int    `toml:"num_ref_imgs"`
	FrameOrder string `toml:"frame_order"` // "key_first" or "temporal"
}

// Loader contains sample fetch behaviour.
type Loader struct {
	Training       bool   `toml:"training"`
	RetryWarnAfter int    `toml:"retry_warn_after"`
	MaxRetries     int    `toml:"max_retries"` // 0 retries without a ceiling
	Seed           uint64 `toml:"seed"`        // 0 seeds from the clock
}

// Augment contains the geometric augmentation ranges applied to key frames.
type Augment struct {
	FlipProb float64 `toml:"flip_prob"`
	ScaleMin float64 `toml:"scale_min"`
	ScaleMax float64 `toml:"scale_max"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: cache root, data root and log directory
//   - Mapping: mapping cache store, hash length and container mode
//   - Sampling: reference-view sampling policy
//   - Loader: training mode and retry policy
//   - Augment: flip and scale ranges for the reference transform
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Mapping  Mapping  `toml:"mapping"`
	Sampling Sampling `toml:"sampling"`
	Loader   Loader   `toml:"loader"`
	Augment  Augment  `toml:"augment"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vis4d/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. The bool reports whether a file was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vis4d.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache root and, when configured, the log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MappingDBPath is the SQLite database used when mapping.store is "sqlite".
func (c *Config) MappingDBPath() string {
	return filepath.Join(c.Paths.CacheDir, "data_mapping.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// DefaultCacheDir resolves the mapping cache root: VIS4D_CACHE_DIR when set,
// otherwise the platform user cache directory namespaced by application.
func DefaultCacheDir() string {
	if value, ok := os.LookupEnv(CacheDirEnv); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if base, err := os.UserCacheDir(); err == nil && base != "" {
		return filepath.Join(base, "vis4d")
	}
	return "~/.cache/vis4d"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
