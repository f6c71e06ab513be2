package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/wagiedev/brainbridge"
	"github.com/wagiedev/brainbridge/internal/config"
	"github.com/wagiedev/brainbridge/internal/instance"
)

// defaultLogLevel keeps terminal output readable unless asked otherwise.
const defaultLogLevel = slog.LevelWarn

type rootFlags struct {
	config      string
	logLevel    string
	metricsAddr string
	lockFile    string
	devDir      string
}

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *config.File
	configErr  error
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.File, error) {
	c.configOnce.Do(func() {
		cfg, err := config.LoadFile(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel(defaultLogLevel)
	if raw := strings.TrimSpace(c.flags.logLevel); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", raw, err)
		}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// bridgeOptions merges the config file and flags, in that order, over the
// defaults. Every command that touches the backend builds from it.
func (c *commandContext) bridgeOptions(cfg *config.File, log *slog.Logger) []brainbridge.Option {
	opts := []brainbridge.Option{
		brainbridge.WithConfigFile(cfg),
		brainbridge.WithLogger(log),
	}

	if dir := strings.TrimSpace(c.flags.devDir); dir != "" {
		opts = append(opts, brainbridge.WithDevDir(dir))
	}

	return opts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// withBridge runs fn against a started bridge with the host concerns in
// place: the instance lock, the metrics listener and cleanup on return.
func (c *commandContext) withBridge(cmd *cobra.Command, fn func(context.Context, brainbridge.Bridge) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	log, err := c.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if lockPath := firstNonEmpty(c.flags.lockFile, cfg.Host.LockFile); lockPath != "" {
		lock, err := instance.Acquire(lockPath)
		if err != nil {
			if errors.Is(err, instance.ErrAlreadyRunning) {
				return fmt.Errorf("another brainbridge holds %s: %w", lockPath, err)
			}
			return err
		}
		defer lock.Release()
	}

	opts := c.bridgeOptions(cfg, log)

	if addr := firstNonEmpty(c.flags.metricsAddr, cfg.Host.MetricsAddr); addr != "" {
		m := brainbridge.NewPrometheusMetrics("")

		srv, err := startMetricsServer(addr, m.Handler(), log)
		if err != nil {
			return err
		}
		defer srv.shutdown(context.WithoutCancel(ctx))

		opts = append(opts, brainbridge.WithMetrics(m))
	}

	return brainbridge.WithBridge(ctx, func(b brainbridge.Bridge) error {
		return fn(ctx, b)
	}, opts...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
