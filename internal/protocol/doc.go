// Package protocol correlates backend responses with the requests that
// caused them.
//
// The wire protocol carries no identifiers by default, so correlation relies
// on order: the Controller appends a pending entry to its Queue before writing
// each request, and every response resolves the oldest entry. When request
// identifiers are enabled, a response that echoes a known id resolves that
// entry instead.
//
// Every entry is resolved exactly once, by whichever of these happens first:
//   - its response arrives
//   - its deadline expires (the entry then stays queued as a tombstone that
//     swallows the late response)
//   - the write fails
//   - the backend exits
//
// Example usage:
//
//	ctrl := protocol.NewController(log, transport, protocol.Config{
//	    Dispatcher: dispatch.NewSerial(),
//	    Timeout:    2 * time.Minute,
//	})
//
//	res := ctrl.Request(ctx, message.KindQuery, map[string]any{"text": "2+2"})
//	fmt.Println(res.Text)
package protocol
