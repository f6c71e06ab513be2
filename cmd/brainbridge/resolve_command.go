package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagiedev/brainbridge"
	"github.com/wagiedev/brainbridge/internal/backend"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print the backend location that would be started",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			log, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			opts := brainbridge.NewOptions(ctx.bridgeOptions(cfg, log)...)

			candidate, err := backend.NewResolver(opts).Resolve()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "candidate:   %s\n", candidate.Name)
			fmt.Fprintf(out, "interpreter: %s\n", candidate.Location.Interpreter)
			fmt.Fprintf(out, "script:      %s\n", candidate.Location.Script)
			fmt.Fprintf(out, "args:        %v\n", backend.BuildArgs(candidate.Location))
			return nil
		},
	}
}
