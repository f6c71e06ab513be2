package brainbridge

import (
	"log/slog"
	"maps"
	"time"

	"github.com/wagiedev/brainbridge/internal/config"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// NewOptions returns the options a bridge built with opts would run with.
func NewOptions(opts ...Option) *Options {
	return applyOptions(opts)
}

// applyOptions applies functional options on top of the defaults.
func applyOptions(opts []Option) *Options {
	options := config.Default()
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithConfigFile applies a loaded configuration file. Options given after it
// override the file.
func WithConfigFile(f *FileConfig) Option {
	return func(o *Options) {
		if f != nil {
			f.Apply(o)
		}
	}
}

// ===== Backend Location =====

// WithPrimary sets the installed backend location, checked first.
func WithPrimary(loc Location) Option {
	return func(o *Options) {
		o.Primary = loc
	}
}

// WithInstallDir sets the primary location to the distribution layout under dir.
func WithInstallDir(dir string) Option {
	return WithPrimary(InstallLocation(dir))
}

// WithFallback sets the location used when the primary script is absent.
func WithFallback(loc Location) Option {
	return func(o *Options) {
		o.Fallback = loc
	}
}

// WithDevDir sets the fallback location to the development layout under dir.
func WithDevDir(dir string) Option {
	return WithFallback(DevLocation(dir))
}

// ===== Process Environment =====

// WithSearchPath sets the PATH the backend runs with.
func WithSearchPath(path string) Option {
	return func(o *Options) {
		o.SearchPath = path
	}
}

// WithModulePathVar names the variable set to the script's directory.
// An empty name disables it.
func WithModulePathVar(name string) Option {
	return func(o *Options) {
		o.ModulePathVar = name
	}
}

// WithEnv adds environment variables for the backend. Repeated calls merge.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithCwd sets the backend's working directory.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// ===== Timing =====

// WithGraceWindow sets the delay between the termination signal and the kill.
func WithGraceWindow(d time.Duration) Option {
	return func(o *Options) {
		o.GraceWindow = d
	}
}

// WithRequestTimeout bounds how long each request waits for its response.
// Zero disables deadlines.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = d
	}
}

// WithWriteTimeout bounds each write to the backend's stdin.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.WriteTimeout = d
	}
}

// ===== Protocol =====

// WithMaxLineSize bounds a single response line.
func WithMaxLineSize(n int) Option {
	return func(o *Options) {
		o.MaxLineSize = n
	}
}

// WithRequestIDs adds a unique "id" to every request. Responses that echo it
// are matched by identifier instead of arrival order.
func WithRequestIDs(enabled bool) Option {
	return func(o *Options) {
		o.RequestIDs = enabled
	}
}

// ===== Callbacks and Integration =====

// WithStderr sets a callback for the backend's stderr output.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// WithOnShutdown sets the hook run once when the backend requests shutdown.
func WithOnShutdown(hook func()) Option {
	return func(o *Options) {
		o.OnShutdown = hook
	}
}

// WithDispatcher sets where asynchronous callbacks run.
func WithDispatcher(d Dispatcher) Option {
	return func(o *Options) {
		o.Dispatcher = d
	}
}

// WithMetrics sets the collector for bridge activity.
func WithMetrics(c MetricsCollector) Option {
	return func(o *Options) {
		o.Metrics = c
	}
}

// WithTransport injects a custom transport instead of spawning a process.
// This is primarily used for testing.
func WithTransport(t Transport) Option {
	return func(o *Options) {
		o.Transport = t
	}
}
