package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lifeos/internal/model"
	"lifeos/pkg/llm"

	"github.com/go-playground/assert/v2"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)

type fakeRecords struct {
	records    []model.LifeRecord
	err        error
	start, end time.Time
}

func (f *fakeRecords) FindByUserIDAndTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]model.LifeRecord, error) {
	f.start, f.end = start, end
	return f.records, f.err
}

type fakeConfigs struct {
	cfg *model.LlmConfig
}

func (f fakeConfigs) GetLatest(ctx context.Context) (*model.LlmConfig, error) {
	return f.cfg, nil
}

type memReports struct {
	entries map[string]string
}

func (m *memReports) GetReport(ctx context.Context, period string, userID int64) (string, bool) {
	r, ok := m.entries[period]
	return r, ok
}

func (m *memReports) PutReport(ctx context.Context, period string, userID int64, report string, ttl time.Duration) {
	m.entries[period] = report
}

type stubChat struct {
	reply string
	err   error
	last  llm.ChatRequest
	calls int
}

func (s *stubChat) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	s.calls++
	s.last = req
	return s.reply, s.err
}

func (s *stubChat) ModelName() string { return "stub" }

func intPtr(v int) *int { return &v }

func sampleRecords() []model.LifeRecord {
	return []model.LifeRecord{
		{
			Content:      "午饭吃了拉面 30.5 元，难吃",
			RecordTypes:  []model.RecordType{model.TypeExpense, model.TypeMood},
			Amount:       decimal.NewNullDecimal(decimal.RequireFromString("30.5")),
			Tags:         []string{"餐饮", "消费"},
			EmotionScore: intPtr(-2),
			RecordTime:   testNow.Add(-3 * time.Hour),
		},
		{
			Content:      "看电影 100 元",
			RecordTypes:  []model.RecordType{model.TypeExpense, model.TypeEvent},
			Amount:       decimal.NewNullDecimal(decimal.NewFromInt(100)),
			Tags:         []string{"娱乐", "消费"},
			EmotionScore: intPtr(6),
			RecordTime:   testNow.Add(-24 * time.Hour),
		},
		{
			Content:     "今天在家看书",
			RecordTypes: []model.RecordType{model.TypeDiary},
			Tags:        []string{"日记"},
			RecordTime:  testNow.Add(-48 * time.Hour),
		},
	}
}

func newTestReporter(records *fakeRecords, cfg *model.LlmConfig, cache ReportCache, chat llm.ChatClient) *Reporter {
	factory := func(c *model.LlmConfig) (llm.ChatClient, error) {
		if chat == nil {
			return nil, llm.ErrNotConfigured
		}
		return chat, nil
	}
	r := NewReporter(records, fakeConfigs{cfg: cfg}, cache, factory, time.Hour)
	r.now = func() time.Time { return testNow }
	return r
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(sampleRecords())

	assert.Equal(t, 3, s.RecordCount)
	assert.Equal(t, "130.50", s.TotalExpense.StringFixed(2))
	assert.Equal(t, 2.0, s.AvgEmotion)
	assert.Equal(t, 2, s.TypeBreakdown[model.TypeExpense])
	assert.Equal(t, 1, s.TypeBreakdown[model.TypeDiary])
	assert.Equal(t, "消费", s.TopTags[0])
	assert.Equal(t, []string{"消费", "娱乐", "日记", "餐饮"}, s.TopTags)
}

func TestComputeStats_ExpenseWithoutAmount(t *testing.T) {
	s := ComputeStats([]model.LifeRecord{
		{RecordTypes: []model.RecordType{model.TypeExpense}},
		{RecordTypes: []model.RecordType{model.TypeMood}, Amount: decimal.NewNullDecimal(decimal.NewFromInt(50))},
	})

	assert.Equal(t, "0.00", s.TotalExpense.StringFixed(2))
	assert.Equal(t, 0.0, s.AvgEmotion)
}

func TestSimpleReport(t *testing.T) {
	got := SimpleReport(Weekly, ComputeStats(sampleRecords()))

	assert.Equal(t, true, strings.HasPrefix(got, "本周生活报告\n\n📊 总体概览\n共记录 3 条生活轨迹"))
	assert.Equal(t, true, strings.Contains(got, "总支出：¥130.50\n消费记录：2条"))
	assert.Equal(t, true, strings.Contains(got, "平均情绪：2.0（正向）"))
	assert.Equal(t, true, strings.Contains(got, "🏷️ 高频标签\n消费、"))
}

func TestSimpleReport_NeutralEmotion(t *testing.T) {
	got := SimpleReport(Monthly, Stats{TotalExpense: decimal.Zero})

	assert.Equal(t, true, strings.HasPrefix(got, "本月生活报告"))
	assert.Equal(t, true, strings.Contains(got, "情绪平稳"))
	assert.Equal(t, false, strings.Contains(got, "消费记录"))
}

func TestReporter_EmptyPeriod(t *testing.T) {
	records := &fakeRecords{}
	cache := &memReports{entries: map[string]string{}}
	r := newTestReporter(records, nil, cache, nil)

	got, err := r.Monthly(context.Background(), 1)

	assert.Equal(t, nil, err)
	assert.Equal(t, "本月还没有任何记录哦，快开始记录你的生活吧！", got)
	assert.Equal(t, testNow.AddDate(0, 0, -30), records.start)
	assert.Equal(t, 0, len(cache.entries))
}

func TestReporter_NarratedReport(t *testing.T) {
	chat := &stubChat{reply: "  这周过得不错！  "}
	cache := &memReports{entries: map[string]string{}}
	cfg := &model.LlmConfig{Provider: "openai", APIKey: "sk-live"}
	r := newTestReporter(&fakeRecords{records: sampleRecords()}, cfg, cache, chat)

	got, err := r.Weekly(context.Background(), 1)

	assert.Equal(t, nil, err)
	assert.Equal(t, "这周过得不错！", got)
	assert.Equal(t, llm.DefaultTemperature, chat.last.Temperature)
	assert.Equal(t, true, strings.Contains(chat.last.User, "本周"))
	assert.Equal(t, true, strings.Contains(chat.last.User, "午饭吃了拉面"))
	assert.Equal(t, "这周过得不错！", cache.entries["weekly"])
}

func TestReporter_FallsBackOnLLMError(t *testing.T) {
	chat := &stubChat{err: llm.ErrUpstream}
	cfg := &model.LlmConfig{Provider: "openai", APIKey: "sk-live"}
	r := newTestReporter(&fakeRecords{records: sampleRecords()}, cfg, nil, chat)

	got, err := r.Weekly(context.Background(), 1)

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, chat.calls)
	assert.Equal(t, true, strings.HasPrefix(got, "本周生活报告"))
}

func TestReporter_PlaceholderKeySkipsLLM(t *testing.T) {
	chat := &stubChat{reply: "never"}
	cfg := &model.LlmConfig{Provider: "openai", APIKey: "your-api-key"}
	r := newTestReporter(&fakeRecords{records: sampleRecords()}, cfg, nil, chat)

	got, _ := r.Weekly(context.Background(), 1)

	assert.Equal(t, 0, chat.calls)
	assert.Equal(t, true, strings.HasPrefix(got, "本周生活报告"))
}

func TestReporter_UsesCache(t *testing.T) {
	records := &fakeRecords{err: errors.New("should not be called")}
	cache := &memReports{entries: map[string]string{"weekly": "cached report"}}
	r := newTestReporter(records, nil, cache, nil)

	got, err := r.Weekly(context.Background(), 1)

	assert.Equal(t, nil, err)
	assert.Equal(t, "cached report", got)
}

func TestReporter_StoreError(t *testing.T) {
	r := newTestReporter(&fakeRecords{err: errors.New("db down")}, nil, nil, nil)

	_, err := r.Weekly(context.Background(), 1)

	assert.NotEqual(t, nil, err)
}

func TestParsePeriod(t *testing.T) {
	p, ok := ParsePeriod(" Weekly ")
	assert.Equal(t, true, ok)
	assert.Equal(t, Weekly, p)

	_, ok = ParsePeriod("daily")
	assert.Equal(t, false, ok)
}
