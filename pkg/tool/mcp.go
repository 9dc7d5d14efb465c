package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	mcpClientName     = "deepagents-go"
	mcpClientVersion  = "dev"
	mcpConnectTimeout = 10 * time.Second

	stdioSchemePrefix = "stdio://"
)

type mcpSession struct {
	serverName string
	session    *mcp.ClientSession
}

// RegisterMCPServer connects to an MCP server, discovers its tools, and
// registers them. serverPath accepts an http(s) URL (streamable transport)
// or a stdio command ("stdio://cmd arg..." or a bare command line). When
// serverName is non-empty every registered tool is prefixed with
// "<serverName>__" to keep names collision-free.
func (r *Registry) RegisterMCPServer(ctx context.Context, serverPath, serverName string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(serverPath) == "" {
		return fmt.Errorf("server path is empty")
	}
	serverName = strings.TrimSpace(serverName)

	connectCtx, cancel := context.WithTimeout(ctx, mcpConnectTimeout)
	defer cancel()

	// The transport holds the caller's ctx, not connectCtx: a stdio server
	// process must outlive the registration handshake.
	transport, err := buildMCPTransport(ctx, serverPath)
	if err != nil {
		return fmt.Errorf("build MCP transport: %w", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: mcpClientName, Version: mcpClientVersion}, nil)
	session, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		return fmt.Errorf("connect MCP client: %w", err)
	}
	success := false
	defer func() {
		if !success {
			_ = session.Close()
		}
	}()

	var tools []*mcp.Tool
	for t, iterErr := range session.Tools(connectCtx, nil) {
		if iterErr != nil {
			return fmt.Errorf("list MCP tools: %w", iterErr)
		}
		tools = append(tools, t)
	}
	if len(tools) == 0 {
		return fmt.Errorf("MCP server returned no tools")
	}

	wrappers := make([]Tool, 0, len(tools))
	for _, desc := range tools {
		if desc == nil || strings.TrimSpace(desc.Name) == "" {
			return fmt.Errorf("encountered MCP tool with empty name")
		}
		name := desc.Name
		if serverName != "" {
			name = fmt.Sprintf("%s__%s", serverName, desc.Name)
		}
		schema, err := convertMCPSchema(desc.InputSchema)
		if err != nil {
			return fmt.Errorf("parse schema for %s: %w", desc.Name, err)
		}
		wrappers = append(wrappers, &remoteTool{
			name:        name,
			remoteName:  desc.Name,
			description: desc.Description,
			schema:      schema,
			session:     session,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range wrappers {
		if _, exists := r.tools[w.Name()]; exists {
			return fmt.Errorf("tool %s already registered", w.Name())
		}
	}
	for _, w := range wrappers {
		r.tools[w.Name()] = w
		r.order = append(r.order, w.Name())
	}
	r.sessions = append(r.sessions, &mcpSession{serverName: serverName, session: session})

	success = true
	return nil
}

// Close terminates all tracked MCP sessions. Errors are logged and ignored
// so shutdown flows are never masked.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = nil
	r.mu.Unlock()

	for _, info := range sessions {
		if info == nil || info.session == nil {
			continue
		}
		if err := info.session.Close(); err != nil {
			log.Printf("[tool] close MCP session: %v", err)
		}
	}
}

func buildMCPTransport(ctx context.Context, spec string) (mcp.Transport, error) {
	spec = strings.TrimSpace(spec)
	lowered := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lowered, stdioSchemePrefix):
		return buildStdioTransport(ctx, spec[len(stdioSchemePrefix):])
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		return &mcp.StreamableClientTransport{Endpoint: spec}, nil
	default:
		return buildStdioTransport(ctx, spec)
	}
}

func buildStdioTransport(ctx context.Context, cmdSpec string) (mcp.Transport, error) {
	parts := strings.Fields(strings.TrimSpace(cmdSpec))
	if len(parts) == 0 {
		return nil, fmt.Errorf("mcp stdio command is empty")
	}
	command := exec.CommandContext(ctx, parts[0], parts[1:]...) // #nosec G204
	return &mcp.CommandTransport{Command: command}, nil
}

func convertMCPSchema(raw any) (*JSONSchema, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var schema JSONSchema
	if err := json.Unmarshal(data, &schema); err == nil && schema.Type != "" {
		return &schema, nil
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	if t, ok := generic["type"].(string); ok {
		schema.Type = t
	}
	if props, ok := generic["properties"].(map[string]interface{}); ok {
		schema.Properties = props
	}
	if req, ok := generic["required"].([]interface{}); ok {
		for _, value := range req {
			if name, ok := value.(string); ok {
				schema.Required = append(schema.Required, name)
			}
		}
	}
	return &schema, nil
}

type remoteTool struct {
	name        string
	remoteName  string
	description string
	schema      *JSONSchema
	session     *mcp.ClientSession
}

func (r *remoteTool) Name() string        { return r.name }
func (r *remoteTool) Description() string { return r.description }
func (r *remoteTool) Schema() *JSONSchema { return r.schema }

func (r *remoteTool) Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	if r.session == nil {
		return nil, fmt.Errorf("mcp session is nil")
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	res, err := r.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      r.remoteName,
		Arguments: params,
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("MCP call returned nil result")
	}
	output := firstTextContent(res.Content)
	if output == "" {
		if payload, err := json.Marshal(res.Content); err == nil {
			output = string(payload)
		}
	}
	return &ToolResult{Success: true, Output: output, Data: res.Content}, nil
}

func firstTextContent(content []mcp.Content) string {
	for _, part := range content {
		if txt, ok := part.(*mcp.TextContent); ok {
			return txt.Text
		}
	}
	return ""
}
