// Package config loads, normalizes, and validates finback configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and validates the result. The Config type
// centralizes every knob the daemon and CLI need: storage directories, API
// bind address, worker polling cadence, the stale-job timeout, and the
// default embedding model parameters.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths and clear validation errors.
package config
