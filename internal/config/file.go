package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DevDirEnv names the environment variable that supplies the development
// fallback directory when the config file does not.
const DevDirEnv = "BRAINBRIDGE_DEV_DIR"

// Backend contains the backend location and process settings.
type Backend struct {
	InstallDir    string            `toml:"install_dir"`
	FallbackDir   string            `toml:"fallback_dir"`
	Interpreter   string            `toml:"interpreter"`
	Script        string            `toml:"script"`
	SearchPath    string            `toml:"search_path"`
	ModulePathVar string            `toml:"module_path_var"`
	Cwd           string            `toml:"cwd"`
	Env           map[string]string `toml:"env"`
}

// Timeouts contains duration strings such as "1s" or "2m".
type Timeouts struct {
	GraceWindow string `toml:"grace_window"`
	Request     string `toml:"request"`
	Write       string `toml:"write"`
}

// Protocol contains wire protocol settings.
type Protocol struct {
	RequestIDs  bool `toml:"request_ids"`
	MaxLineSize int  `toml:"max_line_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
}

// Host contains settings for the hosting process rather than the bridge.
type Host struct {
	MetricsAddr string `toml:"metrics_addr"`
	LockFile    string `toml:"lock_file"`
}

// File is the on-disk TOML configuration.
//
// Configuration sections:
//   - backend: where the backend lives and how it is spawned
//   - timeouts: grace window, request deadline, stdin write bound
//   - protocol: request identifiers and framing limits
//   - logging: log level
//   - host: metrics listener and single-instance lock
type File struct {
	Backend  Backend  `toml:"backend"`
	Timeouts Timeouts `toml:"timeouts"`
	Protocol Protocol `toml:"protocol"`
	Logging  Logging  `toml:"logging"`
	Host     Host     `toml:"host"`
}

// DefaultFilePath returns the default configuration file location.
func DefaultFilePath() (string, error) {
	return ExpandPath("~/.localhost/brainbridge.toml")
}

// LoadFile reads and validates a configuration file. A missing file at the
// default location is not an error and yields an empty File; a missing file
// at an explicit path is.
func LoadFile(path string) (*File, error) {
	explicit := path != ""

	if !explicit {
		defaultPath, err := DefaultFilePath()
		if err != nil {
			return nil, err
		}

		path = defaultPath
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	var f File

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return &f, f.normalize()
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", expanded, err)
	}

	if err := f.normalize(); err != nil {
		return nil, err
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

func (f *File) normalize() error {
	var err error

	if strings.TrimSpace(f.Backend.FallbackDir) == "" {
		f.Backend.FallbackDir = os.Getenv(DevDirEnv)
	}

	fields := []struct {
		name  string
		value *string
	}{
		{"backend.install_dir", &f.Backend.InstallDir},
		{"backend.fallback_dir", &f.Backend.FallbackDir},
		{"backend.interpreter", &f.Backend.Interpreter},
		{"backend.script", &f.Backend.Script},
		{"backend.cwd", &f.Backend.Cwd},
		{"host.lock_file", &f.Host.LockFile},
	}

	for _, field := range fields {
		if *field.value, err = ExpandPath(strings.TrimSpace(*field.value)); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}

	f.Logging.Level = strings.ToLower(strings.TrimSpace(f.Logging.Level))

	return nil
}

// Validate checks values that cannot be normalized.
func (f *File) Validate() error {
	for name, value := range map[string]string{
		"timeouts.grace_window": f.Timeouts.GraceWindow,
		"timeouts.request":      f.Timeouts.Request,
		"timeouts.write":        f.Timeouts.Write,
	} {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if f.Protocol.MaxLineSize < 0 {
		return fmt.Errorf("protocol.max_line_size must be non-negative")
	}

	if (f.Backend.Interpreter == "") != (f.Backend.Script == "") {
		return fmt.Errorf("backend.interpreter and backend.script must be set together")
	}

	switch f.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", f.Logging.Level)
	}

	return nil
}

// Apply copies the file's settings onto opts. Unset fields leave opts unchanged.
func (f *File) Apply(opts *Options) {
	switch {
	case f.Backend.Interpreter != "":
		opts.Primary = Location{Interpreter: f.Backend.Interpreter, Script: f.Backend.Script}
	case f.Backend.InstallDir != "":
		opts.Primary = InstallLocation(f.Backend.InstallDir)
	}

	if f.Backend.FallbackDir != "" {
		opts.Fallback = DevLocation(f.Backend.FallbackDir)
	}

	if f.Backend.SearchPath != "" {
		opts.SearchPath = f.Backend.SearchPath
	}

	if f.Backend.ModulePathVar != "" {
		opts.ModulePathVar = f.Backend.ModulePathVar
	}

	if f.Backend.Cwd != "" {
		opts.Cwd = f.Backend.Cwd
	}

	if len(f.Backend.Env) > 0 {
		if opts.Env == nil {
			opts.Env = make(map[string]string, len(f.Backend.Env))
		}

		for k, v := range f.Backend.Env {
			opts.Env[k] = v
		}
	}

	// Durations were checked by Validate.
	if d, _ := parseDuration(f.Timeouts.GraceWindow); d > 0 {
		opts.GraceWindow = d
	}

	if f.Timeouts.Request != "" {
		opts.RequestTimeout, _ = parseDuration(f.Timeouts.Request)
	}

	if d, _ := parseDuration(f.Timeouts.Write); d > 0 {
		opts.WriteTimeout = d
	}

	if f.Protocol.RequestIDs {
		opts.RequestIDs = true
	}

	if f.Protocol.MaxLineSize > 0 {
		opts.MaxLineSize = f.Protocol.MaxLineSize
	}
}

// LogLevel returns the configured slog level, or fallback when unset.
func (f *File) LogLevel(fallback slog.Level) slog.Level {
	switch f.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}

	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", value)
	}

	return d, nil
}

// ExpandPath expands a leading ~ and returns an absolute, cleaned path.
// The empty string is returned unchanged.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}

	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}

		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}

	cleaned := filepath.Clean(pathValue)

	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}

	return absolute, nil
}
