package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wagiedev/brainbridge/internal/config"
	"github.com/wagiedev/brainbridge/internal/errors"
)

func touch(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("print('ok')\n"), 0o644))
}

// TestResolver_PrimaryWins tests that the installed layout is preferred.
func TestResolver_PrimaryWins(t *testing.T) {
	installDir := t.TempDir()
	devDir := t.TempDir()

	primary := config.InstallLocation(installDir)
	fallback := config.DevLocation(devDir)

	touch(t, primary.Script)
	touch(t, fallback.Script)

	got, err := NewResolver(&config.Options{Primary: primary, Fallback: fallback}).Resolve()
	require.NoError(t, err)
	require.Equal(t, "primary", got.Name)
	require.Equal(t, primary, got.Location)
}

// TestResolver_Fallback tests that the fallback is used when the primary script is absent.
func TestResolver_Fallback(t *testing.T) {
	primary := config.InstallLocation(t.TempDir())
	fallback := config.DevLocation(t.TempDir())

	touch(t, fallback.Script)

	got, err := NewResolver(&config.Options{Primary: primary, Fallback: fallback}).Resolve()
	require.NoError(t, err)
	require.Equal(t, "fallback", got.Name)
	require.Equal(t, fallback, got.Location)
}

// TestResolver_NotFound tests the error listing every searched script.
func TestResolver_NotFound(t *testing.T) {
	primary := config.InstallLocation(t.TempDir())
	fallback := config.DevLocation(t.TempDir())

	_, err := NewResolver(&config.Options{Primary: primary, Fallback: fallback}).Resolve()
	var notFound *errors.BackendNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, []string{primary.Script, fallback.Script}, notFound.SearchedPaths)
}

// TestResolver_DirectoryIsNotAScript tests that a directory at the script path is skipped.
func TestResolver_DirectoryIsNotAScript(t *testing.T) {
	primary := config.InstallLocation(t.TempDir())
	require.NoError(t, os.MkdirAll(primary.Script, 0o755))

	_, err := NewResolver(&config.Options{Primary: primary}).Resolve()
	require.IsType(t, &errors.BackendNotFoundError{}, err)
}

// TestResolver_NoCandidates tests resolution with nothing configured.
func TestResolver_NoCandidates(t *testing.T) {
	_, err := NewResolver(&config.Options{}).Resolve()

	var notFound *errors.BackendNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Empty(t, notFound.SearchedPaths)
}

// TestBuildArgs tests the interpreter argument list.
func TestBuildArgs(t *testing.T) {
	args := BuildArgs(config.Location{Interpreter: "/venv/bin/python", Script: "/brain/main.py"})

	require.Equal(t, []string{"-u", "/brain/main.py"}, args)
}

// TestBuildEnvironment tests the restricted environment.
func TestBuildEnvironment(t *testing.T) {
	t.Setenv("BRAINBRIDGE_HOST_ONLY", "leak")

	loc := config.Location{Interpreter: "/venv/bin/python", Script: "/srv/brain/main.py"}

	t.Run("defaults", func(t *testing.T) {
		env := BuildEnvironment(loc, &config.Options{ModulePathVar: config.DefaultModulePathVar})

		require.Equal(t, []string{
			"PATH=" + config.DefaultSearchPath,
			"PYTHONPATH=/srv/brain",
		}, env)
	})

	t.Run("extra variables sorted and overriding", func(t *testing.T) {
		env := BuildEnvironment(loc, &config.Options{
			SearchPath:    "/usr/bin",
			ModulePathVar: "PYTHONPATH",
			Env: map[string]string{
				"ZED":   "last",
				"ALPHA": "first",
				"PATH":  "/opt/bin",
			},
		})

		require.Equal(t, []string{
			"ALPHA=first",
			"PATH=/opt/bin",
			"PYTHONPATH=/srv/brain",
			"ZED=last",
		}, env)
	})

	t.Run("module path disabled", func(t *testing.T) {
		env := BuildEnvironment(loc, &config.Options{SearchPath: "/usr/bin"})

		require.Equal(t, []string{"PATH=/usr/bin"}, env)
		require.NotContains(t, env, "BRAINBRIDGE_HOST_ONLY=leak")
	})
}
