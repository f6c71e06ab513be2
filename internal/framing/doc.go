// Package framing splits a byte stream into newline-delimited text lines.
//
// A Framer accumulates raw chunks exactly as they are read from a pipe and
// only decodes bytes once a complete line is known, so multi-byte UTF-8
// sequences split across reads are reassembled before decoding. The Framer
// knows nothing about message semantics.
package framing
