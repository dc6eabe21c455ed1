package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/config"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/logger"
)

// MCPClient is the subset of the mcp-go client the registry needs; it is easy
// to mock in tests.
type MCPClient interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// mcpTool adapts a tool advertised by an MCP server to the Tool interface.
type mcpTool struct {
	name        string
	description string
	schema      json.RawMessage
	client      MCPClient
}

func (t *mcpTool) Name() string        { return t.name }
func (t *mcpTool) Description() string { return t.description }

func (t *mcpTool) Parameters() json.RawMessage {
	if len(t.schema) == 0 {
		return emptySchema
	}
	return t.schema
}

func (t *mcpTool) Run(ctx context.Context, args map[string]string) (map[string]any, error) {
	callArgs := make(map[string]any, len(args))
	for k, v := range args {
		callArgs[k] = v
	}

	result, err := t.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: t.name, Arguments: callArgs},
	})
	if err != nil {
		return nil, fmt.Errorf("mcp tool %s: %w", t.name, err)
	}

	var text string
	for _, item := range result.Content {
		if tc, ok := item.(mcp.TextContent); ok {
			text = tc.Text
			break
		}
	}
	if result.IsError {
		if text == "" {
			text = "tool execution failed without details"
		}
		return nil, fmt.Errorf("mcp tool %s: %s", t.name, text)
	}
	if text == "" {
		raw, merr := json.Marshal(result)
		if merr != nil {
			return nil, fmt.Errorf("mcp tool %s: result could not be formatted", t.name)
		}
		text = string(raw)
	}
	return map[string]any{"success": true, "output": text}, nil
}

// newMCPClient creates the transport-appropriate client for one server entry.
func newMCPClient(cfg config.MCPServerConfig) (*client.Client, error) {
	switch cfg.Type {
	case config.ClientTypeSSE:
		var opts []transport.ClientOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHeaders(cfg.Headers))
		}
		return client.NewSSEMCPClient(cfg.URL, opts...)
	case config.ClientTypeStreamableHTTP:
		var opts []transport.StreamableHTTPCOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(cfg.Headers))
		}
		return client.NewStreamableHttpClient(cfg.URL, opts...)
	case config.ClientTypeStdio:
		var env []string
		for k, v := range cfg.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		return client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	default:
		return nil, fmt.Errorf("unsupported MCP server type %q (use sse, streamable_http or stdio)", cfg.Type)
	}
}

// registerClientTools initializes one MCP client and registers its tools.
func registerClientTools(ctx context.Context, m *Manager, serverName string, c MCPClient) error {
	if _, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{Capabilities: mcp.ClientCapabilities{}},
	}); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	serverTools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	for _, t := range serverTools.Tools {
		schema := t.RawInputSchema
		if len(schema) == 0 || string(schema) == "null" {
			raw, merr := json.Marshal(t.InputSchema)
			if merr != nil || string(raw) == "null" || string(raw) == "{}" {
				schema = emptySchema
			} else {
				schema = raw
			}
		}
		m.Register(&mcpTool{
			name:        t.Name,
			description: t.Description,
			schema:      schema,
			client:      c,
		})
		logger.L.Info("registered MCP tool", "tool", t.Name, "server", serverName)
	}
	return nil
}

// RegisterMCP connects to each configured MCP server and registers its tools
// with the manager. A server that fails to connect is logged and skipped; it
// never takes the others down. The returned closers shut the clients down.
func RegisterMCP(ctx context.Context, m *Manager, cfgs []config.MCPServerConfig) []io.Closer {
	var closers []io.Closer
	for _, cfg := range cfgs {
		mcpC, err := newMCPClient(cfg)
		if err != nil {
			logger.L.Error("failed to create MCP client", "server", cfg.Name, "error", err)
			continue
		}

		// stdio transports start on creation; the rest need an explicit Start.
		if cfg.Type != config.ClientTypeStdio {
			if err := mcpC.Start(ctx); err != nil {
				logger.L.Error("failed to start MCP transport", "server", cfg.Name, "error", err)
				_ = mcpC.Close()
				continue
			}
		}

		if err := registerClientTools(ctx, m, cfg.Name, mcpC); err != nil {
			logger.L.Error("failed to register MCP tools", "server", cfg.Name, "error", err)
			_ = mcpC.Close()
			continue
		}
		closers = append(closers, mcpC)
	}
	return closers
}
