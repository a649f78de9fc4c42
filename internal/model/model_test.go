package model

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"今天去超市买了很多东西", 4, "今天去超..."},
		{"abcdef", 6, "abcdef"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
	}
}

func TestClampEmotion(t *testing.T) {
	assert.Equal(t, 10, ClampEmotion(42))
	assert.Equal(t, -10, ClampEmotion(-11))
	assert.Equal(t, 3, ClampEmotion(3))
}

func TestDefaultResult(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

	r := DefaultResult(EmptyInputSummary, now)

	assert.Equal(t, []RecordType{TypeDiary}, r.RecordTypes)
	assert.Equal(t, []string{UncategorizedTag}, r.Tags)
	assert.Equal(t, "2026-03-10 08:00:00", r.RecordTime)
	assert.Equal(t, "Empty input", r.Summary)
	assert.Equal(t, false, r.Amount.Valid)
	assert.Equal(t, TypeDiary, r.PrimaryType())
}

func TestParseRecordType(t *testing.T) {
	rt, ok := ParseRecordType("mood")
	assert.Equal(t, true, ok)
	assert.Equal(t, TypeMood, rt)

	_, ok = ParseRecordType("Mood")
	assert.Equal(t, false, ok)
}

func TestLlmConfigUsable(t *testing.T) {
	tests := []struct {
		name string
		cfg  *LlmConfig
		want bool
	}{
		{"nil", nil, false},
		{"empty key", &LlmConfig{APIKey: "  "}, false},
		{"placeholder", &LlmConfig{APIKey: "YOUR-API-KEY"}, false},
		{"dummy", &LlmConfig{APIKey: "sk-dummy-123"}, false},
		{"real", &LlmConfig{APIKey: "sk-proj-abc123"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Usable())
		})
	}
}

func TestTemperatureOr(t *testing.T) {
	temp := 0.2
	assert.Equal(t, 0.2, (&LlmConfig{Temperature: &temp}).TemperatureOr(0.7))
	assert.Equal(t, 0.7, (&LlmConfig{}).TemperatureOr(0.7))

	var cfg *LlmConfig
	assert.Equal(t, 0.7, cfg.TemperatureOr(0.7))
}
