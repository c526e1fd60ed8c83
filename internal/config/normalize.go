package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMapping()
	c.normalizeSampling()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = DefaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataRoot) == "" {
		c.Paths.DataRoot = defaultDataRoot
	}
	if c.Paths.DataRoot, err = expandPath(strings.TrimSpace(c.Paths.DataRoot)); err != nil {
		return fmt.Errorf("paths.data_root: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMapping() {
	c.Mapping.Store = strings.ToLower(strings.TrimSpace(c.Mapping.Store))
	if c.Mapping.Store == "" {
		c.Mapping.Store = defaultMappingStore
	}
	if c.Mapping.HashLength == 0 {
		c.Mapping.HashLength = defaultHashLength
	}
	if c.Mapping.LockTimeoutSeconds == 0 {
		c.Mapping.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
}

func (c *Config) normalizeSampling() {
	c.Sampling.Type = strings.ToLower(strings.TrimSpace(c.Sampling.Type))
	if c.Sampling.Type == "" {
		c.Sampling.Type = defaultSamplingType
	}
	c.Sampling.FrameOrder = strings.ToLower(strings.TrimSpace(c.Sampling.FrameOrder))
	if c.Sampling.FrameOrder == "" {
		c.Sampling.FrameOrder = defaultFrameOrder
	}
	if c.Loader.RetryWarnAfter == 0 {
		c.Loader.RetryWarnAfter = defaultRetryWarnAfter
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
