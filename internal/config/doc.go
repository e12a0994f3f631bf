// Package config loads, normalizes, and validates hiretrack configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HIRETRACK_ANON_SALT, either exported or kept in a dotenv file next to the
// configuration. The Config type centralizes every knob the daemon and CLI
// need: where the database and candidate documents live, how notifications
// are delivered, and the anonymization retention policy.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
