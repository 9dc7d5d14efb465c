package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/statecraft-ai/deepagents-go/pkg/agent"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

const defaultAnthropicModel = anthropicsdk.ModelClaudeSonnet4_20250514

type anthropicMessages interface {
	New(ctx context.Context, params anthropicsdk.MessageNewParams, opts ...option.RequestOption) (*anthropicsdk.Message, error)
}

type anthropicModel struct {
	msgs        anthropicMessages
	model       anthropicsdk.Model
	maxTokens   int
	maxRetries  int
	temperature *float64
}

// NewAnthropic builds a model backed by the Anthropic Messages API. The key
// falls back to ANTHROPIC_API_KEY, then ANTHROPIC_AUTH_TOKEN.
func NewAnthropic(cfg Config) (agent.Model, error) {
	apiKey := resolveAnthropicKey(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("model: anthropic api key required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Anthropic-compatible endpoints may authenticate with
		// Authorization: Bearer instead of x-api-key.
		option.WithAuthToken(apiKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := anthropicsdk.NewClient(opts...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	model := defaultAnthropicModel
	if trimmed := strings.TrimSpace(cfg.ModelName); trimmed != "" {
		model = anthropicsdk.Model(trimmed)
	}

	return &anthropicModel{
		msgs:        &client.Messages,
		model:       model,
		maxTokens:   maxTokens,
		maxRetries:  retries,
		temperature: cfg.Temperature,
	}, nil
}

func resolveAnthropicKey(configured string) string {
	if key := strings.TrimSpace(configured); key != "" {
		return key
	}
	if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN"))
}

// Generate issues one non-streaming completion.
func (m *anthropicModel) Generate(ctx context.Context, c *agent.Context) (*agent.ModelOutput, error) {
	params, err := m.buildParams(c)
	if err != nil {
		return nil, err
	}

	var out *agent.ModelOutput
	err = withRetry(ctx, m.maxRetries, anthropicRetryable, func(ctx context.Context) error {
		msg, err := m.msgs.New(ctx, params)
		if err != nil {
			return err
		}
		out = convertAnthropicMessage(msg)
		return nil
	})
	return out, err
}

func (m *anthropicModel) buildParams(c *agent.Context) (anthropicsdk.MessageNewParams, error) {
	params := anthropicsdk.MessageNewParams{
		Model:     m.model,
		MaxTokens: int64(m.maxTokens),
		Messages:  convertAnthropicMessages(c.Messages),
	}
	if system := strings.TrimSpace(c.System); system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}
	if len(c.Tools) > 0 {
		tools, err := convertAnthropicTools(c.Tools)
		if err != nil {
			return anthropicsdk.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	if m.temperature != nil {
		params.Temperature = param.NewOpt(*m.temperature)
	}
	return params, nil
}

func convertAnthropicMessages(msgs []agent.Message) []anthropicsdk.MessageParam {
	out := make([]anthropicsdk.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case agent.RoleAssistant:
			out = append(out, anthropicsdk.MessageParam{
				Role:    anthropicsdk.MessageParamRoleAssistant,
				Content: assistantBlocks(msg),
			})
		case agent.RoleTool:
			// Tool results travel on the user side of the wire.
			out = append(out, anthropicsdk.MessageParam{
				Role: anthropicsdk.MessageParamRoleUser,
				Content: []anthropicsdk.ContentBlockParamUnion{
					anthropicsdk.NewToolResultBlock(msg.ToolID, msg.Content, false),
				},
			})
		default:
			text := msg.Content
			if strings.TrimSpace(text) == "" {
				text = "."
			}
			out = append(out, anthropicsdk.MessageParam{
				Role:    anthropicsdk.MessageParamRoleUser,
				Content: []anthropicsdk.ContentBlockParamUnion{anthropicsdk.NewTextBlock(text)},
			})
		}
	}
	if len(out) == 0 {
		out = append(out, anthropicsdk.MessageParam{
			Role:    anthropicsdk.MessageParamRoleUser,
			Content: []anthropicsdk.ContentBlockParamUnion{anthropicsdk.NewTextBlock(".")},
		})
	}
	return out
}

func assistantBlocks(msg agent.Message) []anthropicsdk.ContentBlockParamUnion {
	blocks := make([]anthropicsdk.ContentBlockParamUnion, 0, 1+len(msg.ToolCalls))
	if strings.TrimSpace(msg.Content) != "" {
		blocks = append(blocks, anthropicsdk.NewTextBlock(msg.Content))
	}
	for _, call := range msg.ToolCalls {
		if call.ID == "" || call.Name == "" {
			continue
		}
		blocks = append(blocks, anthropicsdk.NewToolUseBlock(call.ID, call.Input, call.Name))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, anthropicsdk.NewTextBlock("."))
	}
	return blocks
}

func convertAnthropicTools(tools []tool.Tool) ([]anthropicsdk.ToolUnionParam, error) {
	out := make([]anthropicsdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		name := strings.TrimSpace(t.Name())
		if name == "" {
			continue
		}
		schema, err := anthropicSchema(t.Schema())
		if err != nil {
			return nil, fmt.Errorf("model: tool %s schema: %w", name, err)
		}
		tp := anthropicsdk.ToolParam{
			Name:        name,
			InputSchema: schema,
		}
		if desc := strings.TrimSpace(t.Description()); desc != "" {
			tp.Description = anthropicsdk.String(desc)
		}
		out = append(out, anthropicsdk.ToolUnionParam{OfTool: &tp})
	}
	return out, nil
}

func anthropicSchema(s *tool.JSONSchema) (anthropicsdk.ToolInputSchemaParam, error) {
	if s == nil {
		return anthropicsdk.ToolInputSchemaParam{Type: "object"}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return anthropicsdk.ToolInputSchemaParam{}, err
	}
	var schema anthropicsdk.ToolInputSchemaParam
	if err := json.Unmarshal(data, &schema); err != nil {
		return anthropicsdk.ToolInputSchemaParam{}, err
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	return schema, nil
}

func convertAnthropicMessage(msg *anthropicsdk.Message) *agent.ModelOutput {
	out := &agent.ModelOutput{}
	if msg == nil {
		return out
	}

	var textParts []string
	for _, block := range msg.Content {
		switch block.Type {
		case "tool_use":
			id := strings.TrimSpace(block.ID)
			name := strings.TrimSpace(block.Name)
			if id == "" || name == "" {
				continue
			}
			out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
				ID:    id,
				Name:  name,
				Input: decodeToolInput(block.Input),
			})
		case "text":
			if block.Text != "" {
				textParts = append(textParts, block.Text)
			}
		}
	}
	out.Content = strings.Join(textParts, "")
	return out
}

func decodeToolInput(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]interface{}{"raw": string(raw)}
	}
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"value": v}
}

func anthropicRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode != http.StatusUnauthorized
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
		//nolint:staticcheck // Temporary still flags transient dial errors
		return netErr.Temporary()
	}
	return true
}
