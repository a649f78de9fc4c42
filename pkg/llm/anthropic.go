package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultClaudeURL   = "https://api.anthropic.com/v1/messages"
	defaultClaudeModel = "claude-3-sonnet-20240229"
	claudeMaxTokens    = 1024
)

type AnthropicClient struct {
	client    *anthropic.Client
	model     anthropic.Model
	modelName string
}

func NewAnthropicClient(apiKey, apiURL, model string, timeout time.Duration) *AnthropicClient {
	if model == "" {
		model = defaultClaudeModel
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(anthropicBaseURL(apiURL)),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	)
	return &AnthropicClient{
		client:    &client,
		model:     anthropic.Model(model),
		modelName: model,
	}
}

func (c *AnthropicClient) ModelName() string {
	return c.modelName
}

// Complete sends the system prompt and the user text as one user message.
func (c *AnthropicClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	prompt := req.User
	if req.System != "" {
		prompt = req.System + "\n\nUser input: " + req.User
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   claudeMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic API error: %w", ErrUpstream, err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("%w: no content from anthropic", ErrMalformedResponse)
	}

	return resp.Content[0].Text, nil
}

// anthropicBaseURL strips the messages path so the SDK can append its own.
func anthropicBaseURL(apiURL string) string {
	u := strings.TrimSpace(strings.TrimRight(apiURL, ", \t\r\n"))
	if u == "" {
		u = defaultClaudeURL
	}
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, "/messages")
	u = strings.TrimSuffix(u, "/v1")
	return u + "/"
}
