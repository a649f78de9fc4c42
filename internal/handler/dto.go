package handler

import (
	"lifeos/internal/model"

	"github.com/shopspring/decimal"
)

type TrackRequest struct {
	Text string `json:"text"`
}

type ParsedResponse struct {
	RecordTypes  []model.RecordType  `json:"recordTypes"`
	Amount       decimal.NullDecimal `json:"amount"`
	Tags         []string            `json:"tags"`
	EmotionScore int                 `json:"emotionScore"`
	RecordTime   string              `json:"recordTime"`
	Summary      string              `json:"summary"`
}

type TrackResponse struct {
	Record      RecordResponse `json:"record"`
	Parsed      ParsedResponse `json:"parsed"`
	CareMessage string         `json:"care_message,omitempty"`
}

type RecordResponse struct {
	ID           int64               `json:"id"`
	Content      string              `json:"content"`
	RecordTypes  []model.RecordType  `json:"record_types"`
	Amount       decimal.NullDecimal `json:"amount"`
	Tags         []string            `json:"tags"`
	EmotionScore *int                `json:"emotion_score"`
	RecordTime   string              `json:"record_time"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
}

type RecordsResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type UpdateRecordRequest struct {
	Content      *string             `json:"content"`
	RecordTypes  []string            `json:"record_types"`
	Amount       decimal.NullDecimal `json:"amount"`
	Tags         []string            `json:"tags"`
	EmotionScore *int                `json:"emotion_score"`
	RecordTime   *string             `json:"record_time"`
}

type QueryRequest struct {
	Question string `json:"question"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
}

type ReportResponse struct {
	Period string `json:"period"`
	Report string `json:"report"`
}

type CareResponse struct {
	Message string `json:"message"`
}

type LlmConfigRequest struct {
	Provider      string   `json:"provider"`
	APIKey        string   `json:"api_key"`
	APIURL        string   `json:"api_url"`
	Model         string   `json:"model"`
	Temperature   *float64 `json:"temperature"`
	UseLocalRules bool     `json:"use_local_rules"`
}

type LlmConfigResponse struct {
	Provider      string   `json:"provider"`
	APIKey        string   `json:"api_key"`
	APIURL        string   `json:"api_url"`
	Model         string   `json:"model"`
	Temperature   *float64 `json:"temperature"`
	UseLocalRules bool     `json:"use_local_rules"`
	Configured    bool     `json:"configured"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

func toRecordResponse(r model.LifeRecord) RecordResponse {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	res := RecordResponse{
		ID:           r.ID,
		Content:      r.Content,
		RecordTypes:  r.RecordTypes,
		Amount:       r.Amount,
		Tags:         tags,
		EmotionScore: r.EmotionScore,
		RecordTime:   r.RecordTime.Format(model.TimeLayout),
	}
	if !r.CreatedAt.IsZero() {
		res.CreatedAt = r.CreatedAt.Format(model.TimeLayout)
	}
	if !r.UpdatedAt.IsZero() {
		res.UpdatedAt = r.UpdatedAt.Format(model.TimeLayout)
	}
	return res
}

func toParsedResponse(p model.ExtractionResult) ParsedResponse {
	return ParsedResponse{
		RecordTypes:  p.RecordTypes,
		Amount:       p.Amount,
		Tags:         p.Tags,
		EmotionScore: p.EmotionScore,
		RecordTime:   p.RecordTime,
		Summary:      p.Summary,
	}
}

// maskKey keeps the last four characters of an API key.
func maskKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 4 {
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}
