package metrics

import "time"

// Exit reasons reported to ProcessExit.
const (
	ExitRequested = "requested"
	ExitCrashed   = "crashed"
)

// Collector defines the interface for collecting bridge metrics.
type Collector interface {
	// RequestSent records a request written to the backend.
	RequestSent(kind string)

	// ResponseReceived records a decoded response by status.
	ResponseReceived(status string)

	// RequestCompleted records the time between sending a request and
	// resolving it.
	RequestCompleted(kind string, duration time.Duration)

	// RequestTimedOut records a request whose deadline expired.
	RequestTimedOut(kind string)

	// DecodeFailure records a stdout line that was not a valid response.
	DecodeFailure()

	// ProtocolViolation records a response that arrived with nothing pending.
	ProtocolViolation()

	// PendingRequests records the current pending queue length.
	PendingRequests(n int)

	// ProcessStarted records a successful spawn.
	ProcessStarted()

	// ProcessExit records a child exit with ExitRequested or ExitCrashed.
	ProcessExit(reason string)
}

// Nop is a Collector that discards everything.
type Nop struct{}

var _ Collector = Nop{}

func (Nop) RequestSent(string)                     {}
func (Nop) ResponseReceived(string)                {}
func (Nop) RequestCompleted(string, time.Duration) {}
func (Nop) RequestTimedOut(string)                 {}
func (Nop) DecodeFailure()                         {}
func (Nop) ProtocolViolation()                     {}
func (Nop) PendingRequests(int)                    {}
func (Nop) ProcessStarted()                        {}
func (Nop) ProcessExit(string)                     {}

// OrNop returns c, or Nop when c is nil.
func OrNop(c Collector) Collector {
	if c == nil {
		return Nop{}
	}

	return c
}
