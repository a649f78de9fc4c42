package model

import (
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderClaude    = "claude"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderGoogle    = "google"
)

var placeholderKeys = []string{"dummy", "placeholder", "your-api-key", "your_api_key", "sk-xxx", "changeme"}

type LlmConfig struct {
	ID            int64
	Provider      string
	APIKey        string
	APIURL        string
	Model         string
	Temperature   *float64
	UseLocalRules bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Usable reports whether the config carries a real API key.
func (c *LlmConfig) Usable() bool {
	if c == nil {
		return false
	}
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	for _, p := range placeholderKeys {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

// TemperatureOr returns the configured temperature or def when unset.
func (c *LlmConfig) TemperatureOr(def float64) float64 {
	if c == nil || c.Temperature == nil {
		return def
	}
	return *c.Temperature
}
