package config

import (
	"log/slog"
	"time"

	"github.com/wagiedev/brainbridge/internal/dispatch"
	"github.com/wagiedev/brainbridge/internal/metrics"
)

const (
	// DefaultSearchPath is the PATH given to the backend process.
	DefaultSearchPath = "/usr/bin:/bin:/usr/sbin:/sbin:/usr/local/bin"

	// DefaultModulePathVar names the variable that lets the backend locate
	// modules next to its script.
	DefaultModulePathVar = "PYTHONPATH"

	// DefaultGraceWindow is the delay between the graceful termination
	// signal and the forced kill.
	DefaultGraceWindow = 1 * time.Second

	// DefaultRequestTimeout bounds how long a request waits for its response.
	DefaultRequestTimeout = 120 * time.Second

	// DefaultWriteTimeout bounds a single write to the backend's stdin.
	DefaultWriteTimeout = 5 * time.Second
)

// Options configures the bridge.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Primary is the installed backend location, checked first.
	Primary Location

	// Fallback is used when the primary script is absent. Empty disables it.
	Fallback Location

	// SearchPath is the PATH value the backend runs with.
	SearchPath string

	// ModulePathVar is set to the script's directory. Empty disables it.
	ModulePathVar string

	// Env provides additional environment variables for the backend.
	Env map[string]string

	// Cwd is the backend's working directory. Empty inherits the host's.
	Cwd string

	// GraceWindow is the delay before a stop escalates to a kill.
	GraceWindow time.Duration

	// RequestTimeout bounds each request. Zero or negative disables deadlines.
	RequestTimeout time.Duration

	// WriteTimeout bounds each stdin write.
	WriteTimeout time.Duration

	// MaxLineSize bounds a single stdout line. Zero selects the framing default.
	MaxLineSize int

	// RequestIDs adds a unique "id" to every request so responses that echo
	// it are matched by identifier instead of arrival order.
	RequestIDs bool

	// Stderr receives the backend's stderr output, chunk by chunk.
	// If nil, stderr is logged at info level.
	Stderr func(string)

	// OnShutdown is called once when the backend requests application shutdown.
	OnShutdown func()

	// Dispatcher runs caller callbacks. If nil, the bridge owns a serial dispatcher.
	Dispatcher dispatch.Dispatcher

	// Metrics records bridge activity. If nil, metrics are discarded.
	Metrics metrics.Collector

	// Transport overrides the subprocess transport, mainly for tests.
	Transport Transport
}

// Default returns options populated with the standard layout and timings.
func Default() *Options {
	return &Options{
		Primary:        DefaultPrimary(),
		SearchPath:     DefaultSearchPath,
		ModulePathVar:  DefaultModulePathVar,
		GraceWindow:    DefaultGraceWindow,
		RequestTimeout: DefaultRequestTimeout,
		WriteTimeout:   DefaultWriteTimeout,
	}
}
