// Package dispatch provides the execution context that caller callbacks
// run on.
//
// The bridge never runs a caller's continuation on its stdout reader. It hands
// each continuation to a Dispatcher instead. Serial runs them one at a time on
// a dedicated goroutine, in submission order, which plays the role of a UI
// thread for hosts that do not have one.
package dispatch
