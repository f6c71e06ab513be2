package config

import (
	"os"
	"path/filepath"
)

// Location is a pair of interpreter and script paths.
type Location struct {
	Interpreter string
	Script      string
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l.Interpreter == "" && l.Script == ""
}

// InstallLocation returns the distribution layout rooted at dir:
// dir/venv/bin/python and dir/python_brain/main.py.
func InstallLocation(dir string) Location {
	return Location{
		Interpreter: filepath.Join(dir, "venv", "bin", "python"),
		Script:      filepath.Join(dir, "python_brain", "main.py"),
	}
}

// DevLocation returns the development layout rooted at the backend source
// directory: dir/venv/bin/python and dir/main.py.
func DevLocation(dir string) Location {
	return Location{
		Interpreter: filepath.Join(dir, "venv", "bin", "python"),
		Script:      filepath.Join(dir, "main.py"),
	}
}

// DefaultInstallDir returns ~/.localhost, or an empty string when the home
// directory cannot be determined.
func DefaultInstallDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".localhost")
}

// DefaultPrimary returns the installed location under DefaultInstallDir.
func DefaultPrimary() Location {
	dir := DefaultInstallDir()
	if dir == "" {
		return Location{}
	}

	return InstallLocation(dir)
}
