// Package main hosts the brainbridge CLI.
//
// The Cobra command tree starts a backend through the bridge and talks to it
// from the terminal: an interactive loop that mirrors the floating input
// panel, one-shot query and context commands, and an MCP stdio server that
// exposes the same two operations as tools. Diagnostic commands print the
// resolved backend location and the wire schemas without starting anything.
//
// Host concerns live here rather than in the library: configuration file
// loading, the single-instance lock, signal handling and the Prometheus
// listener.
package main
