// Package daemonctl starts and stops the background daemon from the CLI.
//
// The daemon's single-instance lock tells whether it is running; the pid file
// it writes next to the lock tells which process to signal.
package daemonctl
