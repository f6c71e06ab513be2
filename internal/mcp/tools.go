package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names registered by RegisterBridgeTools.
const (
	QueryTool      = "query"
	GetContextTool = "get_context"
)

// Bridge is the part of the bridge the tools call into.
type Bridge interface {
	Query(ctx context.Context, text string) (string, error)
	GetContext(ctx context.Context) (string, error)
}

// RegisterBridgeTools adds the query and get_context tools backed by b.
func RegisterBridgeTools(s *Server, b Bridge) {
	s.AddTool(
		NewTool(QueryTool, "Send a text query to the backend and return its answer.",
			StringSchema("text")),
		func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			text, _ := args["text"].(string)
			if strings.TrimSpace(text) == "" {
				return ErrorResult("missing required argument: text"), nil
			}

			return bridgeResult(b.Query(ctx, text)), nil
		},
	)

	s.AddTool(
		NewTool(GetContextTool, "Return the backend's current context string.",
			StringSchema()),
		func(ctx context.Context, _ map[string]any) (*mcp.CallToolResult, error) {
			return bridgeResult(b.GetContext(ctx)), nil
		},
	)
}

// bridgeResult keeps the resolved text in both cases so clients see the
// same string a local caller would.
func bridgeResult(text string, err error) *mcp.CallToolResult {
	if err != nil {
		return ErrorResult(text)
	}

	return TextResult(text)
}
