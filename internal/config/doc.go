// Package config loads, normalizes, and validates hlspack configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AWS_ACCESS_KEY_ID for the optional mirror upload. The Config type
// centralizes every knob the convert pipeline and CLI need: tool binaries,
// encode options, key material, state directories and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
