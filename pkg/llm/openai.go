package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultOpenAIURL   = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-3.5-turbo"
)

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint,
// including Azure deployments that front the same protocol.
type OpenAIClient struct {
	client    *openai.Client
	modelName string
}

func NewOpenAIClient(apiKey, apiURL, model string, timeout time.Duration) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	base := strings.TrimSuffix(normalizeOpenAIURL(apiURL), "chat/completions")

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	)
	return &OpenAIClient{
		client:    &client,
		modelName: model,
	}
}

func (c *OpenAIClient) ModelName() string {
	return c.modelName
}

func (c *OpenAIClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.modelName,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai API error: %w", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices from openai", ErrMalformedResponse)
	}

	return resp.Choices[0].Message.Content, nil
}

// normalizeOpenAIURL turns a configured base or endpoint URL into the full
// chat-completions endpoint. Trailing commas and whitespace are common
// copy-paste leftovers in stored configs.
func normalizeOpenAIURL(apiURL string) string {
	u := strings.TrimRight(apiURL, ", \t\r\n")
	u = strings.TrimSpace(u)
	if u == "" {
		return defaultOpenAIURL
	}
	if strings.HasSuffix(u, "/chat/completions") {
		return u
	}
	return strings.TrimRight(u, "/") + "/chat/completions"
}
