// Package model binds hosted LLM providers to the agent loop. Each adapter
// translates the loop's conversation into the provider wire format, retries
// transient failures with quadratic backoff, and normalizes tool calls back
// into loop types.
package model

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/statecraft-ai/deepagents-go/pkg/agent"
)

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	defaultMaxTokens  = 4096
	defaultMaxRetries = 10
)

// Config carries the provider-independent connection knobs. An empty APIKey
// falls back to the provider's environment variables.
type Config struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	MaxRetries  int
	Temperature *float64
	HTTPClient  *http.Client
}

// New builds a model for the named provider. An empty provider selects
// Anthropic.
func New(provider string, cfg Config) (agent.Model, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderAnthropic:
		return NewAnthropic(cfg)
	case ProviderOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("model: unknown provider %q", provider)
	}
}
