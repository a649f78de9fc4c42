package report

import (
	"fmt"
	"sort"
	"strings"

	"lifeos/internal/model"

	"github.com/shopspring/decimal"
)

const (
	topTagLimit      = 5
	maxPromptRecords = 30
	maxContentChars  = 60
)

type Stats struct {
	RecordCount   int                      `json:"recordCount"`
	TotalExpense  decimal.Decimal          `json:"totalExpense"`
	AvgEmotion    float64                  `json:"avgEmotion"`
	TypeBreakdown map[model.RecordType]int `json:"typeBreakdown"`
	TopTags       []string                 `json:"topTags"`
}

// ComputeStats aggregates records. A record carrying several types counts
// once toward each of them.
func ComputeStats(records []model.LifeRecord) Stats {
	s := Stats{
		RecordCount:   len(records),
		TotalExpense:  decimal.Zero,
		TypeBreakdown: make(map[model.RecordType]int),
		TopTags:       []string{},
	}

	emotionSum, emotionCount := 0, 0
	tagCounts := make(map[string]int)

	for _, r := range records {
		for _, t := range r.RecordTypes {
			s.TypeBreakdown[t]++
		}
		if r.HasType(model.TypeExpense) && r.Amount.Valid {
			s.TotalExpense = s.TotalExpense.Add(r.Amount.Decimal)
		}
		if r.EmotionScore != nil {
			emotionSum += *r.EmotionScore
			emotionCount++
		}
		for _, tag := range r.Tags {
			tagCounts[tag]++
		}
	}

	if emotionCount > 0 {
		s.AvgEmotion = float64(emotionSum) / float64(emotionCount)
	}

	tags := make([]string, 0, len(tagCounts))
	for tag := range tagCounts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tagCounts[tags[i]] != tagCounts[tags[j]] {
			return tagCounts[tags[i]] > tagCounts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > topTagLimit {
		tags = tags[:topTagLimit]
	}
	s.TopTags = append(s.TopTags, tags...)

	return s
}

func formatRecordsForReport(records []model.LifeRecord) string {
	if len(records) > maxPromptRecords {
		records = records[:maxPromptRecords]
	}

	var sb strings.Builder
	for i, r := range records {
		types := make([]string, len(r.RecordTypes))
		for j, t := range r.RecordTypes {
			types[j] = string(t)
		}

		sb.WriteString(fmt.Sprintf("[%d] %s (%s)\n", i, r.RecordTime.Format("2006-01-02 15:04"), strings.Join(types, ", ")))
		sb.WriteString(fmt.Sprintf("    内容: %s\n", model.Truncate(r.Content, maxContentChars)))
		if r.Amount.Valid {
			sb.WriteString(fmt.Sprintf("    金额: ¥%s\n", r.Amount.Decimal.StringFixed(2)))
		}
		if r.EmotionScore != nil {
			sb.WriteString(fmt.Sprintf("    情绪: %d\n", *r.EmotionScore))
		}
		if len(r.Tags) > 0 {
			sb.WriteString(fmt.Sprintf("    标签: %s\n", strings.Join(r.Tags, ", ")))
		}
	}
	return sb.String()
}
