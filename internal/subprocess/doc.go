// Package subprocess supervises the backend child process.
//
// A Supervisor owns at most one child at a time. Each started child gets
// three goroutines: a stdout reader that frames output into lines, a stderr
// tap, and an exit observer that waits for both and then reaps the process.
// The exit observer is the only place that clears the running state, so
// IsRunning never reports a child that has already been reaped.
//
// Stop sends a graceful termination signal once and arms a timer that kills
// the child if it is still alive when the grace window ends.
package subprocess
