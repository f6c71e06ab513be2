package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wagiedev/brainbridge"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the backend and answer queries read from stdin",
		Long: `Start the backend, print its context line, then send every non-empty
input line as a query and print the answer. The loop ends at end of input,
on interrupt, or when the backend requests shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBridge(cmd, func(runCtx context.Context, b brainbridge.Bridge) error {
				return runLoop(runCtx, b, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

// runLoop resolves queries asynchronously so a shutdown request, which never
// answers the query that triggered it, still ends the loop.
func runLoop(ctx context.Context, b brainbridge.Bridge, in io.Reader, out io.Writer) error {
	contextText, _ := b.GetContext(ctx)
	fmt.Fprintf(out, "context: %s\n", contextText)

	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string

		select {
		case <-ctx.Done():
			return nil
		case <-b.ShutdownRequested():
			printShutdown(out, b)
			return nil
		case next, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(next)
		}

		if line == "" {
			continue
		}

		answer := make(chan string, 1)
		b.QueryAsync(line, func(text string) { answer <- text })

		select {
		case <-ctx.Done():
			return nil
		case <-b.ShutdownRequested():
			printShutdown(out, b)
			return nil
		case text := <-answer:
			fmt.Fprintln(out, text)
		}
	}
}

func printShutdown(out io.Writer, b brainbridge.Bridge) {
	if reason := b.ShutdownReason(); reason != "" {
		fmt.Fprintf(out, "shutdown requested by backend: %s\n", reason)
		return
	}

	fmt.Fprintln(out, "shutdown requested by backend")
}
