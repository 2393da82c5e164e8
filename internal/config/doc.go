// Package config loads, normalizes, and validates sidecar configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides for the
// external tool binaries (SIDECAR_SYNC_BINARY, SIDECAR_MKVMERGE_BINARY). The
// Config type centralizes every knob the CLI and pipelines need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical policies, and clear validation errors.
package config
