// Package store persists candidates, processes, interviews and the
// notification outbox in SQLite.
//
// Every mutation runs inside Update, a single immediate transaction that is
// retried when SQLite reports the database as busy. The workflow layer
// recomputes process state and responsibility inside that transaction and
// writes the materialized result back together with any outbox event, so
// readers never observe an interview change without its derived process
// state.
//
// Schema changes bump the version in schema.go; older databases are rejected
// rather than migrated.
package store
