package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultGeminiBase  = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel = "gemini-pro"
)

// GeminiClient calls the native generateContent REST endpoint.
type GeminiClient struct {
	apiKey     string
	endpoint   string
	modelName  string
	httpClient *http.Client
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

func NewGeminiClient(apiKey, apiURL, model string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		endpoint:   geminiEndpoint(apiURL, model),
		modelName:  model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *GeminiClient) ModelName() string {
	return c.modelName
}

func (c *GeminiClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	prompt := req.User
	if req.System != "" {
		prompt = req.System + "\n\nUser input: " + req.User
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenConfig{Temperature: req.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("gemini marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: gemini request: %w", ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: gemini fetch: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: gemini read: %w", ErrUpstream, err)
	}

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: gemini status %d: %s", ErrUpstream, resp.StatusCode, truncateBody(raw))
	}

	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", fmt.Errorf("%w: gemini response has no candidate text", ErrMalformedResponse)
	}

	return text.String(), nil
}

func geminiEndpoint(apiURL, model string) string {
	u := strings.TrimSpace(strings.TrimRight(apiURL, ", \t\r\n"))
	if u == "" {
		u = defaultGeminiBase
	}
	if strings.Contains(u, "{model}") {
		return strings.ReplaceAll(u, "{model}", model)
	}
	if strings.HasSuffix(u, ":generateContent") {
		return u
	}
	return strings.TrimRight(u, "/") + "/models/" + model + ":generateContent"
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
