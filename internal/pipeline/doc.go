// Package pipeline holds the recruitment domain model and the rules that
// drive it: the interview state machine, the process state resolver, the
// responsibility resolver, and the visibility filter applied to every read.
//
// Everything here is pure. Functions take plain values, never touch storage,
// and never fail for well-formed input; the workflow package calls them inside
// its write transactions and persists the results.
package pipeline
