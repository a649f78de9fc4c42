package model

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// TimeLayout is the textual pattern used for RecordTime everywhere.
const TimeLayout = "2006-01-02 15:04:05"

const (
	UncategorizedTag  = "未分类"
	EmptyInputSummary = "Empty input"
)

type RecordType string

const (
	TypeExpense RecordType = "expense"
	TypeMood    RecordType = "mood"
	TypeEvent   RecordType = "event"
	TypeDiary   RecordType = "diary"
)

// RecordTypeOrder is the narrative priority used when several types apply.
var RecordTypeOrder = []RecordType{TypeExpense, TypeMood, TypeEvent, TypeDiary}

func ParseRecordType(s string) (RecordType, bool) {
	switch RecordType(s) {
	case TypeExpense, TypeMood, TypeEvent, TypeDiary:
		return RecordType(s), true
	}
	return "", false
}

type ExtractionResult struct {
	RecordTypes  []RecordType        `json:"recordTypes"`
	Amount       decimal.NullDecimal `json:"amount"`
	Tags         []string            `json:"tags"`
	EmotionScore int                 `json:"emotionScore"`
	RecordTime   string              `json:"recordTime"`
	Summary      string              `json:"summary"`
}

func (r ExtractionResult) HasType(t RecordType) bool {
	for _, rt := range r.RecordTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// PrimaryType is the first record type, or diary if none is set.
func (r ExtractionResult) PrimaryType() RecordType {
	if len(r.RecordTypes) == 0 {
		return TypeDiary
	}
	return r.RecordTypes[0]
}

// DefaultResult is the diary result used when nothing better is known.
func DefaultResult(summary string, now time.Time) ExtractionResult {
	return ExtractionResult{
		RecordTypes:  []RecordType{TypeDiary},
		Tags:         []string{UncategorizedTag},
		EmotionScore: 0,
		RecordTime:   now.Format(TimeLayout),
		Summary:      Truncate(summary, 50),
	}
}

func ClampEmotion(score int) int {
	if score > 10 {
		return 10
	}
	if score < -10 {
		return -10
	}
	return score
}

// Truncate cuts s to max runes and appends "..." when it had to cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

type LifeRecord struct {
	ID           int64
	UserID       int64
	Content      string
	RecordTypes  []RecordType
	Amount       decimal.NullDecimal
	Tags         []string
	EmotionScore *int
	RecordTime   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r LifeRecord) HasType(t RecordType) bool {
	for _, rt := range r.RecordTypes {
		if rt == t {
			return true
		}
	}
	return false
}

func (r LifeRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
