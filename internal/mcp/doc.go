// Package mcp exposes a running bridge as Model Context Protocol tools.
//
// The server keeps its own thread-safe tool registry. Every call, local or
// arriving over a go-sdk transport (stdio by default), goes through
// Server.CallTool. Two tools are registered for a bridge: "query" and
// "get_context".
package mcp
