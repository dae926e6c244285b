// Package config loads, normalizes, and validates fischpipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FISCHPIPE_DATA_DIR. The Config type centralizes every knob the pipeline and
// CLI need: the artifact directory layout, source labels, adapter steps,
// outbound fetch limits, and validator thresholds.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, derived artifact locations, and clear validation errors.
package config
