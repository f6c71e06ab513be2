package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "brainbridge.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

// TestLoadFile_Full tests that every section is decoded and applied.
func TestLoadFile_Full(t *testing.T) {
	path := writeConfig(t, `
[backend]
install_dir = "/opt/brain"
fallback_dir = "/src/brain"
search_path = "/usr/bin"
module_path_var = "BRAIN_PATH"
cwd = "/tmp"

[backend.env]
BRAIN_MODE = "test"

[timeouts]
grace_window = "250ms"
request = "30s"
write = "2s"

[protocol]
request_ids = true
max_line_size = 4096

[logging]
level = "DEBUG"

[host]
metrics_addr = ":9102"
lock_file = "/tmp/brainbridge.lock"
`)

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "debug", f.Logging.Level)
	require.Equal(t, slog.LevelDebug, f.LogLevel(slog.LevelInfo))
	require.Equal(t, ":9102", f.Host.MetricsAddr)

	opts := Default()
	f.Apply(opts)

	require.Equal(t, InstallLocation("/opt/brain"), opts.Primary)
	require.Equal(t, DevLocation("/src/brain"), opts.Fallback)
	require.Equal(t, "/usr/bin", opts.SearchPath)
	require.Equal(t, "BRAIN_PATH", opts.ModulePathVar)
	require.Equal(t, "/tmp", opts.Cwd)
	require.Equal(t, map[string]string{"BRAIN_MODE": "test"}, opts.Env)
	require.Equal(t, 250*time.Millisecond, opts.GraceWindow)
	require.Equal(t, 30*time.Second, opts.RequestTimeout)
	require.Equal(t, 2*time.Second, opts.WriteTimeout)
	require.True(t, opts.RequestIDs)
	require.Equal(t, 4096, opts.MaxLineSize)
}

// TestLoadFile_ExplicitInterpreter tests that an explicit pair wins over install_dir.
func TestLoadFile_ExplicitInterpreter(t *testing.T) {
	path := writeConfig(t, `
[backend]
install_dir = "/opt/brain"
interpreter = "/usr/bin/python3"
script = "/srv/brain/main.py"
`)

	f, err := LoadFile(path)
	require.NoError(t, err)

	opts := Default()
	f.Apply(opts)

	require.Equal(t, Location{Interpreter: "/usr/bin/python3", Script: "/srv/brain/main.py"}, opts.Primary)
}

// TestLoadFile_ZeroRequestTimeout tests that an explicit zero disables deadlines.
func TestLoadFile_ZeroRequestTimeout(t *testing.T) {
	path := writeConfig(t, `
[timeouts]
request = "0s"
`)

	f, err := LoadFile(path)
	require.NoError(t, err)

	opts := Default()
	f.Apply(opts)

	require.Zero(t, opts.RequestTimeout)
	require.Equal(t, DefaultGraceWindow, opts.GraceWindow)
}

// TestLoadFile_Empty tests that an empty file leaves defaults untouched.
func TestLoadFile_Empty(t *testing.T) {
	t.Setenv(DevDirEnv, "")

	f, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)

	opts := Default()
	f.Apply(opts)

	require.Equal(t, Default(), opts)
}

// TestLoadFile_DevDirEnv tests the environment fallback for the dev directory.
func TestLoadFile_DevDirEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DevDirEnv, dir)

	f, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, dir, f.Backend.FallbackDir)

	opts := Default()
	f.Apply(opts)

	require.Equal(t, DevLocation(dir), opts.Fallback)
}

// TestLoadFile_MissingExplicit tests that an explicit missing path is an error.
func TestLoadFile_MissingExplicit(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

// TestLoadFile_Invalid tests validation failures.
func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed toml", body: "[backend\n"},
		{name: "bad duration", body: "[timeouts]\nrequest = \"soon\"\n"},
		{name: "negative duration", body: "[timeouts]\nwrite = \"-1s\"\n"},
		{name: "negative line size", body: "[protocol]\nmax_line_size = -1\n"},
		{name: "interpreter without script", body: "[backend]\ninterpreter = \"/usr/bin/python3\"\n"},
		{name: "unknown level", body: "[logging]\nlevel = \"loud\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

// TestExpandPath tests home expansion and absolutization.
func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/.localhost")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".localhost"), got)

	got, err = ExpandPath("~")
	require.NoError(t, err)
	require.Equal(t, home, got)

	got, err = ExpandPath("")
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = ExpandPath("/a/b/../c")
	require.NoError(t, err)
	require.Equal(t, "/a/c", got)
}

// TestLocations tests the two backend layouts.
func TestLocations(t *testing.T) {
	install := InstallLocation("/home/u/.localhost")
	require.Equal(t, "/home/u/.localhost/venv/bin/python", install.Interpreter)
	require.Equal(t, "/home/u/.localhost/python_brain/main.py", install.Script)

	dev := DevLocation("/src/brain")
	require.Equal(t, "/src/brain/venv/bin/python", dev.Interpreter)
	require.Equal(t, "/src/brain/main.py", dev.Script)

	require.True(t, Location{}.IsZero())
	require.False(t, dev.IsZero())
}
