package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMapping(); err != nil {
		return err
	}
	if err := c.validateSampling(); err != nil {
		return err
	}
	if err := c.validateLoader(); err != nil {
		return err
	}
	if err := c.validateAugment(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMapping() error {
	switch c.Mapping.Store {
	case "file", "sqlite":
	default:
		return fmt.Errorf("mapping.store: unsupported value %q (expected file or sqlite)", c.Mapping.Store)
	}
	if c.Mapping.HashLength < 1 || c.Mapping.HashLength > 64 {
		return errors.New("mapping.hash_length must be between 1 and 64")
	}
	if c.Mapping.LockTimeoutSeconds < 0 {
		return errors.New("mapping.lock_timeout_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateSampling() error {
	switch c.Sampling.Type {
	case "uniform", "sequential":
	default:
		return fmt.Errorf("sampling.type: unsupported value %q (expected uniform or sequential)", c.Sampling.Type)
	}
	switch c.Sampling.FrameOrder {
	case "key_first", "temporal":
	default:
		return fmt.Errorf("sampling.frame_order: unsupported value %q (expected key_first or temporal)", c.Sampling.FrameOrder)
	}
	if c.Sampling.Scope < 0 {
		return errors.New("sampling.scope must be non-negative")
	}
	if c.Sampling.NumRefImgs < 0 {
		return errors.New("sampling.num_ref_imgs must be non-negative")
	}
	if c.Sampling.Type == "uniform" && c.Sampling.NumRefImgs > 2*c.Sampling.Scope {
		return fmt.Errorf("sampling.num_ref_imgs (%d) exceeds the uniform window of 2*scope (%d)",
			c.Sampling.NumRefImgs, 2*c.Sampling.Scope)
	}
	return nil
}

func (c *Config) validateLoader() error {
	if c.Loader.RetryWarnAfter < 1 {
		return errors.New("loader.retry_warn_after must be at least 1")
	}
	if c.Loader.MaxRetries < 0 {
		return errors.New("loader.max_retries must be non-negative (0 disables the ceiling)")
	}
	return nil
}

func (c *Config) validateAugment() error {
	if c.Augment.FlipProb < 0 || c.Augment.FlipProb > 1 {
		return errors.New("augment.flip_prob must be between 0 and 1")
	}
	if c.Augment.ScaleMin <= 0 || c.Augment.ScaleMax <= 0 {
		return errors.New("augment.scale_min and augment.scale_max must be positive")
	}
	if c.Augment.ScaleMin > c.Augment.ScaleMax {
		return errors.New("augment.scale_min must not exceed augment.scale_max")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
