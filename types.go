package brainbridge

import (
	"github.com/wagiedev/brainbridge/internal/config"
	"github.com/wagiedev/brainbridge/internal/dispatch"
	"github.com/wagiedev/brainbridge/internal/message"
	"github.com/wagiedev/brainbridge/internal/metrics"
	"github.com/wagiedev/brainbridge/internal/protocol"
)

// Kind is the type of a request.
type Kind = message.Kind

// Request kinds understood by the backend.
const (
	KindQuery      = message.KindQuery
	KindGetContext = message.KindGetContext
)

// Texts a call resolves to when it cannot reach the backend.
const (
	NotRunningText = protocol.NotRunningText
	NoContextText  = protocol.NoContextText
	TimeoutText    = protocol.TimeoutText
	ExitedText     = protocol.ExitedText
)

// Options holds the bridge configuration built from Option values.
type Options = config.Options

// Location is an interpreter and script pair.
type Location = config.Location

// FileConfig is the TOML configuration file.
type FileConfig = config.File

// Transport carries raw lines to and from a backend.
type Transport = config.Transport

// TransportHandler receives lines and the exit from a Transport.
type TransportHandler = config.Handler

// Dispatcher runs callbacks on the host's execution context.
type Dispatcher = dispatch.Dispatcher

// DispatchFunc adapts a function to a Dispatcher.
type DispatchFunc = dispatch.Func

// MetricsCollector records bridge activity.
type MetricsCollector = metrics.Collector

// PrometheusMetrics is a MetricsCollector backed by a Prometheus registry.
type PrometheusMetrics = metrics.Prometheus

// InstallLocation returns the distribution layout under dir.
func InstallLocation(dir string) Location {
	return config.InstallLocation(dir)
}

// DevLocation returns the development layout under the backend source dir.
func DevLocation(dir string) Location {
	return config.DevLocation(dir)
}

// LoadConfigFile reads a TOML configuration file. An empty path selects
// ~/.localhost/brainbridge.toml, which may be absent.
func LoadConfigFile(path string) (*FileConfig, error) {
	return config.LoadFile(path)
}

// NewSerialDispatcher returns a dispatcher that runs callbacks one at a time
// on its own goroutine.
func NewSerialDispatcher() *dispatch.Serial {
	return dispatch.NewSerial()
}

// NewPrometheusMetrics returns a collector registered on a private registry.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	return metrics.NewPrometheus(namespace)
}
