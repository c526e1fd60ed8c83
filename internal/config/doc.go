// Package config loads, normalizes, and validates vis4d data-loading settings.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the VIS4D_CACHE_DIR environment
// override for the mapping cache root. The Config type centralizes every knob
// the CLI and the data-loading packages need: cache placement, reference-view
// sampling, retry policy, augmentation ranges and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum spellings, and clear validation errors.
package config
