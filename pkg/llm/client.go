package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lifeos/internal/model"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultTemperature = 0.7
)

type ChatRequest struct {
	System      string
	User        string
	Temperature float64
}

// ChatClient sends one system+user exchange and returns the raw reply text.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	ModelName() string
}

// ClientFactory builds a ChatClient for a provider config.
type ClientFactory func(cfg *model.LlmConfig) (ChatClient, error)

type Family string

const (
	FamilyOpenAI Family = "openai"
	FamilyClaude Family = "claude"
	FamilyGemini Family = "gemini"
)

// ProviderFamily maps a provider name to its wire protocol. Unknown
// providers are assumed to speak the OpenAI chat-completions protocol.
func ProviderFamily(provider string) Family {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case model.ProviderClaude, model.ProviderAnthropic:
		return FamilyClaude
	case model.ProviderGemini, model.ProviderGoogle:
		return FamilyGemini
	default:
		return FamilyOpenAI
	}
}

// NewChatClient returns the client for cfg's provider with the default timeout.
func NewChatClient(cfg *model.LlmConfig) (ChatClient, error) {
	return NewChatClientWithTimeout(cfg, DefaultTimeout)
}

func NewChatClientWithTimeout(cfg *model.LlmConfig, timeout time.Duration) (ChatClient, error) {
	if !cfg.Usable() {
		return nil, fmt.Errorf("%w: missing or placeholder api key", ErrNotConfigured)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch ProviderFamily(cfg.Provider) {
	case FamilyClaude:
		return NewAnthropicClient(cfg.APIKey, cfg.APIURL, cfg.Model, timeout), nil
	case FamilyGemini:
		return NewGeminiClient(cfg.APIKey, cfg.APIURL, cfg.Model, timeout), nil
	default:
		return NewOpenAIClient(cfg.APIKey, cfg.APIURL, cfg.Model, timeout), nil
	}
}
