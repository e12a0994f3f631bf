// Package logs reads hiretrack log files for the CLI.
//
// Tail returns the last lines of a log, or the lines appended since a saved
// offset, optionally waiting for new output. Lines can be narrowed to a single
// recruitment process; console continuation lines travel with their header.
package logs
