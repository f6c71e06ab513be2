package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

type metricsServer struct {
	server *http.Server
	log    *slog.Logger
}

// startMetricsServer binds addr before returning so a bad address fails the
// command instead of a background goroutine.
func startMetricsServer(addr string, handler http.Handler, log *slog.Logger) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &metricsServer{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: log.With("component", "metrics_server"),
	}

	go func() {
		srv.log.Info("Metrics server listening", "addr", ln.Addr().String())
		if err := srv.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("Metrics server error", "error", err)
		}
	}()

	return srv, nil
}

func (s *metricsServer) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Warn("Metrics server shutdown failed", "error", err)
	}
}
