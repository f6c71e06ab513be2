package mcp

import (
	"context"
	"errors"
	"testing"

	mcpgo "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()

	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcpgo.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])

	return text.Text
}

func TestServerToolsAndCallTool(t *testing.T) {
	server := NewServer(nil, "demo", "1.0.0")
	require.Empty(t, server.Tools())

	server.AddTool(
		NewTool("echo", "echoes text", StringSchema("text")),
		func(_ context.Context, args map[string]any) (*mcpgo.CallToolResult, error) {
			text, _ := args["text"].(string)

			return TextResult("echo: " + text), nil
		},
	)
	server.AddTool(NewTool("alpha", "first", StringSchema()),
		func(_ context.Context, args map[string]any) (*mcpgo.CallToolResult, error) {
			require.NotNil(t, args)

			return nil, nil
		})

	tools := server.Tools()
	require.Len(t, tools, 2)
	require.Equal(t, "alpha", tools[0].Name)
	require.Equal(t, "echo", tools[1].Name)

	result := server.CallTool(context.Background(), "echo", map[string]any{"text": "hello"})
	require.False(t, result.IsError)
	require.Equal(t, "echo: hello", resultText(t, result))

	empty := server.CallTool(context.Background(), "alpha", nil)
	require.False(t, empty.IsError)
	require.Empty(t, empty.Content)

	missing := server.CallTool(context.Background(), "unknown", map[string]any{})
	require.True(t, missing.IsError)
	require.Equal(t, "unknown tool: unknown", resultText(t, missing))
}

func TestServerCallTool_HandlerError(t *testing.T) {
	server := NewServer(nil, "demo", "1.0.0")
	server.AddTool(
		NewTool("fails", "always fails", StringSchema()),
		func(context.Context, map[string]any) (*mcpgo.CallToolResult, error) {
			return nil, errors.New("boom")
		},
	)

	result := server.CallTool(context.Background(), "fails", map[string]any{})

	require.True(t, result.IsError)
	require.Equal(t, "fails: boom", resultText(t, result))
}

func TestServerHandler_BadArguments(t *testing.T) {
	server := NewServer(nil, "demo", "1.0.0")

	var called bool

	server.AddTool(NewTool("echo", "echoes text", StringSchema("text")),
		func(context.Context, map[string]any) (*mcpgo.CallToolResult, error) {
			called = true

			return TextResult("ok"), nil
		})

	result, err := server.handler("echo")(context.Background(), &mcpgo.CallToolRequest{
		Params: &mcpgo.CallToolParamsRaw{Name: "echo", Arguments: []byte(`{"text":`)},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "failed to unmarshal arguments")
	require.False(t, called)

	result, err = server.handler("echo")(context.Background(), &mcpgo.CallToolRequest{
		Params: &mcpgo.CallToolParamsRaw{Name: "echo", Arguments: []byte(`{"text":"hi"}`)},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.True(t, called)
}

func TestStringSchema(t *testing.T) {
	schema := StringSchema("text", "mode")

	require.Equal(t, "object", schema.Type)
	require.Equal(t, []string{"mode", "text"}, schema.Required)
	require.Equal(t, "string", schema.Properties["text"].Type)
	require.Equal(t, "string", schema.Properties["mode"].Type)

	empty := StringSchema()
	require.Equal(t, "object", empty.Type)
	require.Empty(t, empty.Required)
	require.Empty(t, empty.Properties)
}

func TestParseArguments(t *testing.T) {
	t.Run("nil request and empty args return empty map", func(t *testing.T) {
		args, err := ParseArguments(nil)
		require.NoError(t, err)
		require.Empty(t, args)

		args, err = ParseArguments(&mcpgo.CallToolRequest{Params: &mcpgo.CallToolParamsRaw{}})
		require.NoError(t, err)
		require.Empty(t, args)
	})

	t.Run("valid arguments are parsed", func(t *testing.T) {
		req := &mcpgo.CallToolRequest{
			Params: &mcpgo.CallToolParamsRaw{
				Arguments: []byte(`{"text":"2+2","count":3}`),
			},
		}

		args, err := ParseArguments(req)
		require.NoError(t, err)
		require.Equal(t, "2+2", args["text"])
		require.Equal(t, float64(3), args["count"])
	})

	t.Run("invalid json returns wrapped error", func(t *testing.T) {
		req := &mcpgo.CallToolRequest{
			Params: &mcpgo.CallToolParamsRaw{
				Arguments: []byte(`{"text":`),
			},
		}

		args, err := ParseArguments(req)
		require.Error(t, err)
		require.Nil(t, args)
		require.Contains(t, err.Error(), "failed to unmarshal arguments")
	})
}
