// Package message defines the wire types exchanged with the backend and the
// codec that converts them to and from line-delimited JSON.
//
// Encoding produces exactly one JSON object followed by a newline. Decoding
// is total: any line, however malformed, yields a usable Response.
package message
