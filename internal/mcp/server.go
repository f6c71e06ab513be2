package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolFunc handles one tool call with its decoded arguments.
type ToolFunc func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// Server is a tool registry that can be served over an MCP transport.
type Server struct {
	log     *slog.Logger
	name    string
	version string
	mu      sync.RWMutex
	tools   map[string]*registeredTool
}

type registeredTool struct {
	tool *mcp.Tool
	fn   ToolFunc
}

// NewServer creates an empty tool server.
func NewServer(log *slog.Logger, name, version string) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Server{
		log:     log.With("component", "mcp"),
		name:    name,
		version: version,
		tools:   make(map[string]*registeredTool, 2),
	}
}

// AddTool registers a tool, replacing any tool with the same name.
func (s *Server) AddTool(tool *mcp.Tool, fn ToolFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = &registeredTool{tool: tool, fn: fn}
}

// Tools returns the registered tools sorted by name.
func (s *Server) Tools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]*mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t.tool)
	}

	slices.SortFunc(tools, func(a, b *mcp.Tool) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return tools
}

// CallTool runs the named tool. Every failure, including an unknown name,
// comes back as an error result so the peer always gets an answer.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	s.mu.RLock()
	t, ok := s.tools[name]
	s.mu.RUnlock()

	if !ok {
		s.log.Warn("Call for unknown tool", "tool", name)

		return ErrorResult("unknown tool: " + name)
	}

	if args == nil {
		args = map[string]any{}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		s.log.Warn("Tool failed", "tool", name, "error", err)

		return ErrorResult(fmt.Sprintf("%s: %v", name, err))
	}

	if result == nil {
		return &mcp.CallToolResult{Content: []mcp.Content{}}
	}

	return result
}

// handler adapts a registered tool to the go-sdk by routing through CallTool.
func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := ParseArguments(req)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		return s.CallTool(ctx, name, args), nil
	}
}

// Serve registers every tool on a go-sdk server and runs it on transport
// until the peer disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    s.name,
		Version: s.version,
	}, nil)

	tools := s.Tools()
	names := make([]string, 0, len(tools))

	for _, tool := range tools {
		server.AddTool(tool, s.handler(tool.Name))
		names = append(names, tool.Name)
	}

	s.log.Info("Serving MCP tools", "name", s.name, "version", s.version, "tools", names)

	if err := server.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// Run serves the tools over stdin/stdout.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// StringSchema builds an object schema with one required string property per name.
func StringSchema(names ...string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		properties[name] = &jsonschema.Schema{Type: "string"}
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   slices.Sorted(slices.Values(names)),
	}
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// NewTool creates an mcp.Tool with the given parameters.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	return &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}
}

// ParseArguments unmarshals CallToolRequest arguments into a map.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return make(map[string]any), nil
	}

	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}

	return args, nil
}
