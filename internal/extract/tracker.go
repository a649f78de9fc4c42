package extract

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"lifeos/internal/model"
)

// CareThreshold is the emotion score below which a care message is attached.
const CareThreshold = -5

var careMessages = []string{
	"我注意到你最近可能有些低落。记住，无论发生什么，我都在这里陪着你。",
	"生活中总会有起起落落，这很正常。希望你能好好照顾自己。",
	"如果有什么想说的，随时告诉我，我愿意倾听。",
	"别忘了，你是最棒的！相信一切都会好起来的。",
	"今天辛苦了，记得给自己一个放松的时刻。",
}

// RandomCareMessage picks one of the fixed care messages.
func RandomCareMessage() string {
	return careMessages[rand.IntN(len(careMessages))]
}

type Extractor interface {
	Extract(ctx context.Context, text string) model.ExtractionResult
}

type RecordStore interface {
	Insert(ctx context.Context, record *model.LifeRecord) error
}

// ReportInvalidator drops cached reports that a new record makes stale.
type ReportInvalidator interface {
	DeleteReports(ctx context.Context, userID int64)
}

type TrackResult struct {
	Record      model.LifeRecord
	Parsed      model.ExtractionResult
	CareMessage string
}

// Tracker extracts a record from text and persists it.
type Tracker struct {
	extractor Extractor
	records   RecordStore
	reports   ReportInvalidator
	now       func() time.Time
}

// NewTracker wires a Tracker. reports may be nil when nothing is cached.
func NewTracker(extractor Extractor, records RecordStore, reports ReportInvalidator) *Tracker {
	return &Tracker{extractor: extractor, records: records, reports: reports, now: time.Now}
}

func (t *Tracker) Track(ctx context.Context, userID int64, text string) (*TrackResult, error) {
	parsed := t.extractor.Extract(ctx, text)

	recordTime, err := time.ParseInLocation(model.TimeLayout, parsed.RecordTime, time.Local)
	if err != nil {
		recordTime = t.now()
	}

	score := parsed.EmotionScore
	record := model.LifeRecord{
		UserID:       userID,
		Content:      strings.TrimSpace(text),
		RecordTypes:  parsed.RecordTypes,
		Amount:       parsed.Amount,
		Tags:         parsed.Tags,
		EmotionScore: &score,
		RecordTime:   recordTime,
	}

	if err := t.records.Insert(ctx, &record); err != nil {
		return nil, err
	}

	if t.reports != nil {
		t.reports.DeleteReports(ctx, userID)
	}

	result := &TrackResult{Record: record, Parsed: parsed}
	if score < CareThreshold {
		slog.Info("low emotion detected", "user_id", userID, "record_id", record.ID, "emotion_score", score)
		result.CareMessage = RandomCareMessage()
	}
	return result, nil
}
