// Command hiretrack is the command-line interface to the recruitment tracker.
//
// Every write goes through workflow.Manager so process state, responsible
// sets, and notification events are recomputed in the same transaction. When
// a hiretrackd daemon holds the instance lock the CLI leaves delivery to it;
// otherwise events are delivered before the command returns.
package main
