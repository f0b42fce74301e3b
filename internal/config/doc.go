// Package config loads, normalizes, and validates lsvault configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file that sits beside
// the config, and honours environment fallbacks such as LSVAULT_CATALOG. The
// Config type centralizes every knob the engine and CLI need so the catalog,
// vault, and export locations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
