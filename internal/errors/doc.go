// Package errors defines error types for the brain bridge.
//
// This package provides structured error types that wrap the different failure
// scenarios of supervising the backend process and talking to it over stdio.
// All error types support unwrapping and can be checked using errors.Is,
// errors.As, and errors.AsType.
package errors
