package brainbridge_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	brainbridge "github.com/wagiedev/brainbridge"
	"github.com/wagiedev/brainbridge/internal/testbackend"
)

func TestMain(m *testing.M) {
	testbackend.RunIfRequested()
	os.Exit(m.Run())
}

func helperOptions(t *testing.T, mode string, extra ...brainbridge.Option) []brainbridge.Option {
	t.Helper()

	opts := []brainbridge.Option{
		brainbridge.WithPrimary(testbackend.Location(t)),
		brainbridge.WithEnv(testbackend.Env(mode)),
		brainbridge.WithGraceWindow(200 * time.Millisecond),
		brainbridge.WithRequestTimeout(5 * time.Second),
	}

	return append(opts, extra...)
}

func startHelper(t *testing.T, mode string, extra ...brainbridge.Option) brainbridge.Bridge {
	t.Helper()

	b := brainbridge.New(helperOptions(t, mode, extra...)...)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.Start(context.Background()))

	return b
}

// TestBridge_NotStarted tests the fast path before Start.
func TestBridge_NotStarted(t *testing.T) {
	b := brainbridge.New(helperOptions(t, testbackend.ModeEcho)...)
	defer b.Close()

	text, err := b.Query(context.Background(), "2+2")
	require.Equal(t, brainbridge.NotRunningText, text)
	require.ErrorIs(t, err, brainbridge.ErrBackendNotRunning)

	text, err = b.GetContext(context.Background())
	require.Equal(t, brainbridge.NoContextText, text)
	require.ErrorIs(t, err, brainbridge.ErrBackendNotRunning)
	require.Zero(t, b.Pending())
}

// TestBridge_QueryAndContext tests the basic scenario against a live backend.
func TestBridge_QueryAndContext(t *testing.T) {
	b := startHelper(t, testbackend.ModeEcho)

	text, err := b.GetContext(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ctx", text)

	text, err = b.Query(context.Background(), "2+2")
	require.NoError(t, err)
	require.Equal(t, "4", text)

	text, err = b.Query(context.Background(), "boom")
	require.NoError(t, err)
	require.Equal(t, "boom", text)

	text, err = b.Send(context.Background(), brainbridge.KindQuery, map[string]any{"text": "hello"})
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

// TestBridge_AsyncOrder tests that async callbacks resolve in request order.
func TestBridge_AsyncOrder(t *testing.T) {
	b := startHelper(t, testbackend.ModeEcho)

	var (
		mu  sync.Mutex
		got []string
		wg  sync.WaitGroup
	)

	inputs := []string{"slow", "a", "b", "c"}
	wg.Add(len(inputs) + 1)

	for _, in := range inputs {
		b.QueryAsync(in, func(s string) {
			mu.Lock()
			got = append(got, s)
			mu.Unlock()
			wg.Done()
		})
	}

	b.GetContextAsync(func(s string) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
		wg.Done()
	})

	wg.Wait()
	require.Equal(t, []string{"slow", "a", "b", "c", "ctx"}, got)
}

// TestBridge_CrashSurfacesProcessError tests that an unexpected exit is reported.
func TestBridge_CrashSurfacesProcessError(t *testing.T) {
	b := startHelper(t, testbackend.ModeEcho)

	text, err := b.Query(context.Background(), "crash")
	require.Equal(t, brainbridge.ExitedText, text)
	require.ErrorIs(t, err, brainbridge.ErrBackendExited)

	require.Eventually(t, func() bool { return !b.IsRunning() }, 5*time.Second, 10*time.Millisecond)

	pe, ok := errors.AsType[*brainbridge.ProcessError](b.LastExit())
	require.True(t, ok, "expected ProcessError, got %v", b.LastExit())
	require.Equal(t, 3, pe.ExitCode)
	require.Contains(t, pe.Stderr, "crash requested")

	text, _ = b.GetContext(context.Background())
	require.Equal(t, brainbridge.NoContextText, text)
}

// TestBridge_ShutdownRequest tests that a shutdown response runs the hook once.
func TestBridge_ShutdownRequest(t *testing.T) {
	var hooks atomic.Int32

	b := startHelper(t, testbackend.ModeEcho,
		brainbridge.WithOnShutdown(func() { hooks.Add(1) }))

	// The shutdown response bypasses the queue, so the entry stays pending
	// until the backend is stopped.
	flushed := make(chan string, 1)
	b.QueryAsync("shutdown", func(s string) { flushed <- s })

	select {
	case <-b.ShutdownRequested():
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown was not requested")
	}

	require.Eventually(t, func() bool { return hooks.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	// The host reacts to the request by stopping the bridge.
	require.NoError(t, b.Stop(context.Background()))
	require.False(t, b.IsRunning())

	select {
	case text := <-flushed:
		require.Equal(t, brainbridge.ExitedText, text)
	case <-time.After(5 * time.Second):
		t.Fatal("pending query was not flushed")
	}
}

// TestBridge_StderrCallback tests that backend stderr reaches the callback.
func TestBridge_StderrCallback(t *testing.T) {
	var (
		mu     sync.Mutex
		stderr string
	)

	startHelper(t, testbackend.ModeEcho, brainbridge.WithStderr(func(s string) {
		mu.Lock()
		stderr += s
		mu.Unlock()
	}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(stderr) > 0
	}, 5*time.Second, 10*time.Millisecond)
}

// TestBridge_NotFound tests that a missing backend is reported with the searched paths.
func TestBridge_NotFound(t *testing.T) {
	dir := t.TempDir()

	b := brainbridge.New(brainbridge.WithInstallDir(dir), brainbridge.WithDevDir(dir))
	defer b.Close()

	err := b.Start(context.Background())

	nf, ok := errors.AsType[*brainbridge.BackendNotFoundError](err)
	require.True(t, ok, "expected BackendNotFoundError, got %v", err)
	require.Len(t, nf.SearchedPaths, 2)

	var bridgeErr brainbridge.BridgeError
	require.ErrorAs(t, err, &bridgeErr)
}

// TestBridge_ClosedIsFinal tests that a closed bridge cannot be restarted.
func TestBridge_ClosedIsFinal(t *testing.T) {
	b := brainbridge.New(helperOptions(t, testbackend.ModeEcho)...)

	require.NoError(t, b.Start(context.Background()))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	require.ErrorIs(t, b.Start(context.Background()), brainbridge.ErrBridgeClosed)

	_, err := b.Query(context.Background(), "2+2")
	require.ErrorIs(t, err, brainbridge.ErrBridgeClosed)
}

// TestBridge_PrometheusMetrics tests that a bridge records into a Prometheus collector.
func TestBridge_PrometheusMetrics(t *testing.T) {
	m := brainbridge.NewPrometheusMetrics("")
	b := startHelper(t, testbackend.ModeEcho, brainbridge.WithMetrics(m))

	_, err := b.Query(context.Background(), "2+2")
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}

	require.Contains(t, names, "brainbridge_requests_total")
	require.Contains(t, names, "brainbridge_process_starts_total")
}
