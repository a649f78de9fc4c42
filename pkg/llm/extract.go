package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lifeos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var recordTimeLayouts = []string{
	model.TimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Extractor turns free text into an ExtractionResult through a chat model.
type Extractor struct {
	newClient ClientFactory
	now       func() time.Time
}

func NewExtractor(factory ClientFactory) *Extractor {
	if factory == nil {
		factory = NewChatClient
	}
	return &Extractor{newClient: factory, now: time.Now}
}

func (e *Extractor) Extract(ctx context.Context, text string, cfg *model.LlmConfig) (model.ExtractionResult, error) {
	if !cfg.Usable() {
		return model.ExtractionResult{}, fmt.Errorf("%w: missing or placeholder api key", ErrNotConfigured)
	}

	client, err := e.newClient(cfg)
	if err != nil {
		return model.ExtractionResult{}, err
	}

	content, err := client.Complete(ctx, ChatRequest{
		System:      extractionPrompt,
		User:        text,
		Temperature: cfg.TemperatureOr(DefaultTemperature),
	})
	if err != nil {
		return model.ExtractionResult{}, err
	}

	return ParseExtraction(content, text, e.now())
}

// ParseExtraction parses a model reply into an ExtractionResult, repairing
// the usual deviations from the requested schema. text is the original user
// input and only feeds the summary fallback.
func ParseExtraction(content, text string, now time.Time) (model.ExtractionResult, error) {
	payload := cleanJSONResponse(content)
	if !gjson.Valid(payload) {
		return model.ExtractionResult{}, fmt.Errorf("%w: invalid JSON payload: %s", ErrMalformedResponse, truncateBody([]byte(payload)))
	}

	root := gjson.Parse(payload)
	if !root.IsObject() {
		return model.ExtractionResult{}, fmt.Errorf("%w: payload is not an object", ErrMalformedResponse)
	}

	result := model.ExtractionResult{
		RecordTypes:  parseRecordTypes(root),
		Amount:       parseAmount(root.Get("amount")),
		Tags:         parseTags(root.Get("tags")),
		EmotionScore: model.ClampEmotion(parseEmotion(root.Get("emotionScore"))),
		RecordTime:   parseRecordTime(root.Get("recordTime"), now),
		Summary:      strings.TrimSpace(root.Get("summary").String()),
	}
	if result.Summary == "" {
		result.Summary = model.Truncate(text, 50)
	}

	return result, nil
}

func parseRecordTypes(root gjson.Result) []model.RecordType {
	var names []string

	plural := root.Get("recordTypes")
	switch {
	case plural.IsArray():
		for _, v := range plural.Array() {
			names = append(names, v.String())
		}
	case plural.Type == gjson.String:
		names = append(names, plural.String())
	default:
		if single := root.Get("recordType"); single.Type == gjson.String {
			names = append(names, single.String())
		}
	}

	var types []model.RecordType
	seen := make(map[model.RecordType]bool)
	for _, name := range names {
		t, ok := model.ParseRecordType(strings.ToLower(strings.TrimSpace(name)))
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}

	if len(types) == 0 {
		return []model.RecordType{model.TypeDiary}
	}
	return types
}

func parseAmount(v gjson.Result) decimal.NullDecimal {
	var raw string
	switch v.Type {
	case gjson.Number:
		raw = v.Raw
	case gjson.String:
		raw = strings.TrimSpace(v.Str)
		raw = strings.TrimLeft(raw, "¥￥$ ")
		raw = strings.TrimRight(raw, "元 ")
	default:
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseTags(v gjson.Result) []string {
	var tags []string
	seen := make(map[string]bool)
	if v.IsArray() {
		for _, item := range v.Array() {
			tag := strings.TrimSpace(item.String())
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	if len(tags) == 0 {
		return []string{model.UncategorizedTag}
	}
	return tags
}

func parseEmotion(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		return int(v.Int())
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0
		}
		return int(n)
	}
	return 0
}

// parseRecordTime keeps the model's time only when it parses and is not
// dated before today; models like to invent past dates.
func parseRecordTime(v gjson.Result, now time.Time) string {
	fallback := now.Format(model.TimeLayout)
	s := strings.TrimSpace(v.String())
	if s == "" {
		return fallback
	}

	for _, layout := range recordTimeLayouts {
		t, err := time.ParseInLocation(layout, s, now.Location())
		if err != nil {
			continue
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if t.Before(today) {
			return fallback
		}
		return t.Format(model.TimeLayout)
	}

	return fallback
}
