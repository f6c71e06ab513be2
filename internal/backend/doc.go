// Package backend decides which backend to run and how to run it.
//
// # Resolution
//
// The Resolver checks an ordered list of candidate locations and picks the
// first one whose script exists:
//  1. Primary: the installed layout (~/.localhost/venv/bin/python and
//     ~/.localhost/python_brain/main.py by default)
//  2. Fallback: an injected development layout, if configured
//
// Only the script's existence is checked. A missing interpreter surfaces later
// as a spawn failure, which keeps the two failure modes distinct.
//
// # Command Building
//
//	args := backend.BuildArgs(loc)           // ["-u", script]
//	env := backend.BuildEnvironment(loc, opts)
package backend
