package model

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/statecraft-ai/deepagents-go/pkg/agent"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

const defaultOpenAIModel = "gpt-4o"

type openaiChatCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type openaiModel struct {
	completions openaiChatCompletions
	model       string
	maxTokens   int
	maxRetries  int
	temperature *float64
}

// NewOpenAI builds a model backed by the Chat Completions API. The key falls
// back to OPENAI_API_KEY.
func NewOpenAI(cfg Config) (agent.Model, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" {
		return nil, errors.New("model: openai api key required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := openai.NewClient(opts...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	model := strings.TrimSpace(cfg.ModelName)
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openaiModel{
		completions: &client.Chat.Completions,
		model:       model,
		maxTokens:   maxTokens,
		maxRetries:  retries,
		temperature: cfg.Temperature,
	}, nil
}

// Generate issues one non-streaming completion.
func (m *openaiModel) Generate(ctx context.Context, c *agent.Context) (*agent.ModelOutput, error) {
	params := m.buildParams(c)

	var out *agent.ModelOutput
	err := withRetry(ctx, m.maxRetries, openaiRetryable, func(ctx context.Context) error {
		completion, err := m.completions.New(ctx, params)
		if err != nil {
			return err
		}
		out = convertOpenAICompletion(completion)
		return nil
	})
	return out, err
}

func (m *openaiModel) buildParams(c *agent.Context) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(m.model),
		MaxCompletionTokens: openai.Int(int64(m.maxTokens)),
		Messages:            convertOpenAIMessages(c),
	}
	if len(c.Tools) > 0 {
		params.Tools = convertOpenAITools(c.Tools)
	}
	if m.temperature != nil {
		params.Temperature = openai.Float(*m.temperature)
	}
	return params
}

func convertOpenAIMessages(c *agent.Context) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(c.Messages)+1)
	if system := strings.TrimSpace(c.System); system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range c.Messages {
		switch msg.Role {
		case agent.RoleAssistant:
			out = append(out, openaiAssistantMessage(msg))
		case agent.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolID))
		default:
			text := msg.Content
			if strings.TrimSpace(text) == "" {
				text = "."
			}
			out = append(out, openai.UserMessage(text))
		}
	}
	if len(out) == 0 {
		out = append(out, openai.UserMessage("."))
	}
	return out
}

func openaiAssistantMessage(msg agent.Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}

	content := msg.Content
	if strings.TrimSpace(content) == "" {
		content = "."
	}
	assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
		OfString: openai.String(content),
	}

	for _, call := range msg.ToolCalls {
		if call.ID == "" || call.Name == "" {
			continue
		}
		args, _ := json.Marshal(call.Input) //nolint:errcheck
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: string(args),
			},
		})
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func convertOpenAITools(tools []tool.Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		name := strings.TrimSpace(t.Name())
		if name == "" {
			continue
		}
		fn := shared.FunctionDefinitionParam{
			Name:       name,
			Parameters: openaiParameters(t.Schema()),
		}
		if desc := strings.TrimSpace(t.Description()); desc != "" {
			fn.Description = openai.Opt(desc)
		}
		out = append(out, openai.ChatCompletionToolParam{Function: fn})
	}
	return out
}

func openaiParameters(s *tool.JSONSchema) shared.FunctionParameters {
	if s == nil {
		return shared.FunctionParameters{"type": "object"}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return shared.FunctionParameters{"type": "object"}
	}
	var params shared.FunctionParameters
	if err := json.Unmarshal(data, &params); err != nil {
		return shared.FunctionParameters{"type": "object"}
	}
	if _, ok := params["type"]; !ok {
		params["type"] = "object"
	}
	return params
}

func convertOpenAICompletion(completion *openai.ChatCompletion) *agent.ModelOutput {
	out := &agent.ModelOutput{}
	if completion == nil || len(completion.Choices) == 0 {
		return out
	}

	msg := completion.Choices[0].Message
	out.Content = msg.Content
	for _, tc := range msg.ToolCalls {
		if tc.ID == "" || tc.Function.Name == "" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: parseToolArguments(tc.Function.Arguments),
		})
	}
	return out
}

func parseToolArguments(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]interface{}{"raw": raw}
	}
	return args
}

func openaiRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
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
