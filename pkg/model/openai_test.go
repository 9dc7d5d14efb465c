package model

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statecraft-ai/deepagents-go/pkg/agent"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

type fakeChatCompletions struct {
	newFunc        func(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
	capturedParams openai.ChatCompletionNewParams
	calls          int
}

func (f *fakeChatCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.capturedParams = params
	f.calls++
	if f.newFunc != nil {
		return f.newFunc(ctx, params, opts...)
	}
	return nil, errors.New("fake: New not implemented")
}

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAI(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key required")
}

func TestNewOpenAIEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	mdl, err := NewOpenAI(Config{})
	require.NoError(t, err)
	assert.NotNil(t, mdl)
}

func TestOpenAIGenerate(t *testing.T) {
	fake := &fakeChatCompletions{
		newFunc: func(context.Context, openai.ChatCompletionNewParams, ...option.RequestOption) (*openai.ChatCompletion, error) {
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{{
					FinishReason: "tool_calls",
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "let me check",
						ToolCalls: []openai.ChatCompletionMessageToolCall{{
							ID: "call-1",
							Function: openai.ChatCompletionMessageToolCallFunction{
								Name:      "read_file",
								Arguments: `{"file_path":"notes.md"}`,
							},
						}},
					},
				}},
			}, nil
		},
	}
	mdl := &openaiModel{completions: fake, model: "gpt-4o", maxTokens: 256}

	out, err := mdl.Generate(context.Background(), &agent.Context{
		System: "You coordinate research.",
		Messages: []agent.Message{
			{Role: agent.RoleUser, Content: "start"},
			{Role: agent.RoleAssistant, ToolCalls: []agent.ToolCall{{ID: "call-0", Name: "ls", Input: map[string]interface{}{}}}},
			{Role: agent.RoleTool, Content: "[]", ToolID: "call-0", ToolName: "ls"},
		},
		Tools: []tool.Tool{&stubTool{
			name: "read_file",
			desc: "Read a file from the workspace.",
			schema: &tool.JSONSchema{
				Type:       "object",
				Properties: map[string]interface{}{"file_path": map[string]interface{}{"type": "string"}},
				Required:   []string{"file_path"},
			},
		}},
	})
	require.NoError(t, err)

	params := fake.capturedParams
	assert.Equal(t, "gpt-4o", string(params.Model))
	assert.Equal(t, int64(256), params.MaxCompletionTokens.Value)

	require.Len(t, params.Messages, 4)
	require.NotNil(t, params.Messages[0].OfSystem)
	require.NotNil(t, params.Messages[2].OfAssistant)
	require.Len(t, params.Messages[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "call-0", params.Messages[2].OfAssistant.ToolCalls[0].ID)
	require.NotNil(t, params.Messages[3].OfTool)
	assert.Equal(t, "call-0", params.Messages[3].OfTool.ToolCallID)

	require.Len(t, params.Tools, 1)
	assert.Equal(t, "read_file", params.Tools[0].Function.Name)
	assert.Equal(t, "object", params.Tools[0].Function.Parameters["type"])

	assert.Equal(t, "let me check", out.Content)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "call-1", out.ToolCalls[0].ID)
	assert.Equal(t, "read_file", out.ToolCalls[0].Name)
	assert.Equal(t, "notes.md", out.ToolCalls[0].Input["file_path"])
}

func TestOpenAIGenerateRetries(t *testing.T) {
	attempts := 0
	fake := &fakeChatCompletions{
		newFunc: func(context.Context, openai.ChatCompletionNewParams, ...option.RequestOption) (*openai.ChatCompletion, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("transient upstream hiccup")
			}
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{{
					Message: openai.ChatCompletionMessage{Role: "assistant", Content: "ok"},
				}},
			}, nil
		},
	}
	mdl := &openaiModel{completions: fake, model: "gpt-4o", maxTokens: 64, maxRetries: 2}

	out, err := mdl.Generate(context.Background(), &agent.Context{
		Messages: []agent.Message{{Role: agent.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "ok", out.Content)
}

func TestOpenAIUnauthorizedNotRetried(t *testing.T) {
	fake := &fakeChatCompletions{
		newFunc: func(context.Context, openai.ChatCompletionNewParams, ...option.RequestOption) (*openai.ChatCompletion, error) {
			return nil, &openai.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid API key"}
		},
	}
	mdl := &openaiModel{completions: fake, model: "gpt-4o", maxTokens: 64, maxRetries: 5}

	_, err := mdl.Generate(context.Background(), &agent.Context{})
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls)
}

func TestParseToolArguments(t *testing.T) {
	assert.Nil(t, parseToolArguments(""))
	assert.Equal(t, map[string]interface{}{"location": "Tokyo"}, parseToolArguments(`{"location":"Tokyo"}`))
	assert.Equal(t, map[string]interface{}{"raw": "not json"}, parseToolArguments("not json"))
}

func TestOpenAIParametersNilSchema(t *testing.T) {
	params := openaiParameters(nil)
	assert.Equal(t, "object", params["type"])
}
