package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/wagiedev/brainbridge"
	"github.com/wagiedev/brainbridge/internal/mcp"
)

func newServeMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Expose query and get_context as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(cmd, func(runCtx context.Context, b brainbridge.Bridge) error {
				log, err := ctx.logger(cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				server := mcp.NewServer(log, "brainbridge", version)
				mcp.RegisterBridgeTools(server, b)

				if err := server.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
}
