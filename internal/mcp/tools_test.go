package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	mcpgo "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

var errNotRunning = errors.New("backend not running")

type fakeBridge struct {
	running bool
	queries []string
}

func (f *fakeBridge) Query(_ context.Context, text string) (string, error) {
	if !f.running {
		return "Error: backend not running", errNotRunning
	}

	f.queries = append(f.queries, text)

	return "answer to " + text, nil
}

func (f *fakeBridge) GetContext(context.Context) (string, error) {
	if !f.running {
		return "None", errNotRunning
	}

	return "editor: main.go", nil
}

func newBridgeServer(b Bridge) *Server {
	server := NewServer(nil, "brainbridge", "test")
	RegisterBridgeTools(server, b)

	return server
}

func TestBridgeTools(t *testing.T) {
	fake := &fakeBridge{running: true}
	server := newBridgeServer(fake)

	tools := server.Tools()
	require.Len(t, tools, 2)
	require.Equal(t, GetContextTool, tools[0].Name)
	require.Equal(t, QueryTool, tools[1].Name)

	result := server.CallTool(context.Background(), QueryTool, map[string]any{"text": "2+2"})
	require.False(t, result.IsError)
	require.Equal(t, "answer to 2+2", resultText(t, result))
	require.Equal(t, []string{"2+2"}, fake.queries)

	result = server.CallTool(context.Background(), GetContextTool, nil)
	require.False(t, result.IsError)
	require.Equal(t, "editor: main.go", resultText(t, result))
}

func TestBridgeTools_MissingText(t *testing.T) {
	fake := &fakeBridge{running: true}
	server := newBridgeServer(fake)

	result := server.CallTool(context.Background(), QueryTool, map[string]any{"text": "  "})

	require.True(t, result.IsError)
	require.Equal(t, "missing required argument: text", resultText(t, result))
	require.Empty(t, fake.queries)
}

func TestBridgeTools_NotRunning(t *testing.T) {
	server := newBridgeServer(&fakeBridge{})

	result := server.CallTool(context.Background(), QueryTool, map[string]any{"text": "hi"})
	require.True(t, result.IsError)
	require.Equal(t, "Error: backend not running", resultText(t, result))

	result = server.CallTool(context.Background(), GetContextTool, nil)
	require.True(t, result.IsError)
	require.Equal(t, "None", resultText(t, result))
}

func TestServeOverTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := newBridgeServer(&fakeBridge{running: true})
	serverTransport, clientTransport := mcpgo.NewInMemoryTransports()

	served := make(chan error, 1)

	go func() {
		served <- server.Serve(ctx, serverTransport)
	}()

	client := mcpgo.NewClient(&mcpgo.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	listed, err := session.ListTools(ctx, &mcpgo.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(listed.Tools))
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}

	require.ElementsMatch(t, []string{QueryTool, GetContextTool}, names)

	result, err := session.CallTool(ctx, &mcpgo.CallToolParams{
		Name:      QueryTool,
		Arguments: map[string]any{"text": "2+2"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, "answer to 2+2", resultText(t, result))

	result, err = session.CallTool(ctx, &mcpgo.CallToolParams{
		Name:      QueryTool,
		Arguments: map[string]any{"text": " "},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, "missing required argument: text", resultText(t, result))

	require.NoError(t, session.Close())
	cancel()

	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after the session closed")
	}
}
