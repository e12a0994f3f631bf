// Package services defines shared utilities consumed by the workflow manager,
// the store, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp process IDs, candidate IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (validation, not found, conflict, permission) with errors.Is.
//
// Use these helpers when wiring new write paths so error handling and
// observability stay uniform.
package services
