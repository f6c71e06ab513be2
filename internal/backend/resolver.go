package backend

import (
	"log/slog"
	"os"

	"github.com/wagiedev/brainbridge/internal/config"
	"github.com/wagiedev/brainbridge/internal/errors"
)

// Candidate is a named location the resolver may choose.
type Candidate struct {
	Name     string
	Location config.Location
}

// Resolver locates the backend to spawn.
type Resolver interface {
	// Resolve returns the first candidate whose script exists.
	Resolve() (Candidate, error)
}

type resolver struct {
	candidates []Candidate
	stat       func(string) (os.FileInfo, error)
	log        *slog.Logger
}

var _ Resolver = (*resolver)(nil)

// NewResolver returns a resolver over the primary and fallback locations of
// opts, in that order. Zero locations are skipped.
func NewResolver(opts *config.Options) Resolver {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	candidates := make([]Candidate, 0, 2)

	if !opts.Primary.IsZero() {
		candidates = append(candidates, Candidate{Name: "primary", Location: opts.Primary})
	}

	if !opts.Fallback.IsZero() {
		candidates = append(candidates, Candidate{Name: "fallback", Location: opts.Fallback})
	}

	return &resolver{
		candidates: candidates,
		stat:       os.Stat,
		log:        log.With("component", "resolver"),
	}
}

// Resolve returns the first candidate whose script exists.
func (r *resolver) Resolve() (Candidate, error) {
	searched := make([]string, 0, len(r.candidates))

	for _, c := range r.candidates {
		searched = append(searched, c.Location.Script)

		info, err := r.stat(c.Location.Script)
		if err != nil || info.IsDir() {
			r.log.Debug("Backend script not found", "candidate", c.Name, "script", c.Location.Script)

			continue
		}

		r.log.Debug("Resolved backend",
			"candidate", c.Name,
			"interpreter", c.Location.Interpreter,
			"script", c.Location.Script,
		)

		return c, nil
	}

	r.log.Warn("Backend not found in any searched location", "searched_paths", searched)

	return Candidate{}, &errors.BackendNotFoundError{SearchedPaths: searched}
}
