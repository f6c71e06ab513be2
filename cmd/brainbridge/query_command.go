package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wagiedev/brainbridge"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "query TEXT...",
		Short: "Send one query and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			return ctx.withBridge(cmd, func(runCtx context.Context, b brainbridge.Bridge) error {
				answer, err := b.Query(runCtx, text)
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return err
			})
		},
	}
}

func newContextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Print the backend's context string",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(cmd, func(runCtx context.Context, b brainbridge.Bridge) error {
				text, err := b.GetContext(runCtx)
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			})
		},
	}
}
