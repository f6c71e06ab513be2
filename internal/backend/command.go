package backend

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/wagiedev/brainbridge/internal/config"
)

// UnbufferedFlag asks the interpreter not to buffer stdout, so responses
// reach the bridge as soon as they are written.
const UnbufferedFlag = "-u"

// BuildArgs returns the interpreter arguments for loc.
func BuildArgs(loc config.Location) []string {
	return []string{UnbufferedFlag, loc.Script}
}

// BuildEnvironment returns the complete environment for the backend. Nothing
// is inherited from the host: the backend gets PATH, the module path variable
// pointing at the script's directory, and the configured extra variables in
// key order. Extra variables override the first two.
func BuildEnvironment(loc config.Location, opts *config.Options) []string {
	vars := make(map[string]string, len(opts.Env)+2)

	searchPath := opts.SearchPath
	if searchPath == "" {
		searchPath = config.DefaultSearchPath
	}

	vars["PATH"] = searchPath

	if opts.ModulePathVar != "" {
		vars[opts.ModulePathVar] = filepath.Dir(loc.Script)
	}

	maps.Copy(vars, opts.Env)

	env := make([]string, 0, len(vars))
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, key+"="+vars[key])
	}

	return env
}
