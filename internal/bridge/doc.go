// Package bridge wires the supervisor, the protocol controller, the shutdown
// coordinator and the callback dispatcher into one object.
//
// A Bridge is the Handler its transport reports to: stdout lines go to the
// controller, and the exit report fails everything pending. Requests made
// while no backend is running never reach the queue; they resolve at once
// with a fixed text ("Error: backend not running" for queries, "None" for
// context requests).
package bridge
