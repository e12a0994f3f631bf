// Package daemon coordinates the long-running hiretrack process.
//
// It wires configuration, the SQLite store, and the workflow manager into a
// single lifecycle with flock-based locking so only one instance runs the
// periodic interview sweep and the notification dispatch loop. CLI commands
// keep writing to the store directly while the daemon runs; the shared
// outbox is drained by whichever process holds the lock.
//
// Keep orchestration logic here: state rules live in pipeline and the write
// boundary lives in workflow.
package daemon
