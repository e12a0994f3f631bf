// Package preflight provides readiness checks for the filesystem paths and
// the notification sink hiretrack depends on.
//
// The daemon runs RunAll once at startup and logs every failed check; the CLI
// "hiretrack status" command prints the same results. A failed check never
// blocks writes: events simply wait in the outbox until the sink is reachable.
package preflight
