package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lifeos/internal/model"
	"lifeos/pkg/llm"
)

type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

func ParsePeriod(s string) (Period, bool) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly, true
	case Monthly:
		return Monthly, true
	}
	return "", false
}

func (p Period) Days() int {
	if p == Monthly {
		return 30
	}
	return 7
}

func (p Period) Label() string {
	if p == Monthly {
		return "本月"
	}
	return "本周"
}

func EmptyMessage(p Period) string {
	return p.Label() + "还没有任何记录哦，快开始记录你的生活吧！"
}

type RecordStore interface {
	FindByUserIDAndTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]model.LifeRecord, error)
}

type ConfigStore interface {
	GetLatest(ctx context.Context) (*model.LlmConfig, error)
}

type ReportCache interface {
	GetReport(ctx context.Context, period string, userID int64) (string, bool)
	PutReport(ctx context.Context, period string, userID int64, report string, ttl time.Duration)
}

type Reporter struct {
	records   RecordStore
	configs   ConfigStore
	cache     ReportCache
	newClient llm.ClientFactory
	ttl       time.Duration
	now       func() time.Time
}

// NewReporter wires a Reporter. cache may be nil; a nil factory uses
// llm.NewChatClient.
func NewReporter(records RecordStore, configs ConfigStore, cache ReportCache, factory llm.ClientFactory, ttl time.Duration) *Reporter {
	if factory == nil {
		factory = llm.NewChatClient
	}
	return &Reporter{
		records:   records,
		configs:   configs,
		cache:     cache,
		newClient: factory,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (r *Reporter) Weekly(ctx context.Context, userID int64) (string, error) {
	return r.Generate(ctx, Weekly, userID)
}

func (r *Reporter) Monthly(ctx context.Context, userID int64) (string, error) {
	return r.Generate(ctx, Monthly, userID)
}

// Generate returns the cached report for the period when present and builds
// a fresh one otherwise. Only a failing record store produces an error.
func (r *Reporter) Generate(ctx context.Context, period Period, userID int64) (string, error) {
	if r.cache != nil {
		if cached, ok := r.cache.GetReport(ctx, string(period), userID); ok {
			return cached, nil
		}
	}
	return r.Refresh(ctx, period, userID)
}

// Refresh builds the report without reading the cache and stores the result.
func (r *Reporter) Refresh(ctx context.Context, period Period, userID int64) (string, error) {
	end := r.now()
	start := end.AddDate(0, 0, -period.Days())

	records, err := r.records.FindByUserIDAndTimeRange(ctx, userID, start, end)
	if err != nil {
		return "", fmt.Errorf("loading records for %s report: %w", period, err)
	}

	if len(records) == 0 {
		return EmptyMessage(period), nil
	}

	stats := ComputeStats(records)
	report := r.narrate(ctx, period, stats, records)
	if report == "" {
		report = SimpleReport(period, stats)
	}

	if r.cache != nil {
		r.cache.PutReport(ctx, string(period), userID, report, r.ttl)
	}

	return report, nil
}

func (r *Reporter) narrate(ctx context.Context, period Period, stats Stats, records []model.LifeRecord) string {
	cfg, err := r.configs.GetLatest(ctx)
	if err != nil {
		slog.Warn("could not load llm config for report", "error", err)
		return ""
	}

	if !cfg.Usable() {
		return ""
	}

	client, err := r.newClient(cfg)
	if err != nil {
		slog.Warn("could not build llm client for report", "error", err)
		return ""
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		slog.Warn("could not encode report stats", "error", err)
		return ""
	}

	reply, err := client.Complete(ctx, llm.ChatRequest{
		System:      reportSystemPrompt,
		User:        fmt.Sprintf(reportPrompt, period.Label(), string(statsJSON), formatRecordsForReport(records)),
		Temperature: llm.DefaultTemperature,
	})
	if err != nil {
		slog.Warn("ai report generation failed, using simple report", "period", period, "model", client.ModelName(), "error", err)
		return ""
	}

	return strings.TrimSpace(reply)
}

// SimpleReport renders stats without a language model.
func SimpleReport(period Period, stats Stats) string {
	var sb strings.Builder
	sb.WriteString(period.Label() + "生活报告\n\n")

	sb.WriteString("📊 总体概览\n")
	sb.WriteString(fmt.Sprintf("共记录 %d 条生活轨迹\n\n", stats.RecordCount))

	sb.WriteString("💰 消费统计\n")
	sb.WriteString(fmt.Sprintf("总支出：¥%s\n", stats.TotalExpense.StringFixed(2)))
	if n, ok := stats.TypeBreakdown[model.TypeExpense]; ok {
		sb.WriteString(fmt.Sprintf("消费记录：%d条\n", n))
	}
	sb.WriteString("\n")

	sb.WriteString("😊 情绪分析\n")
	switch {
	case stats.AvgEmotion > 0:
		sb.WriteString(fmt.Sprintf("平均情绪：%.1f（正向）\n", stats.AvgEmotion))
	case stats.AvgEmotion < 0:
		sb.WriteString(fmt.Sprintf("平均情绪：%.1f（偏低）\n", stats.AvgEmotion))
	default:
		sb.WriteString("情绪平稳\n")
	}

	if len(stats.TopTags) > 0 {
		sb.WriteString("\n🏷️ 高频标签\n")
		sb.WriteString(strings.Join(stats.TopTags, "、") + "\n")
	}

	return sb.String()
}

const reportSystemPrompt = "You are a warm and thoughtful life coach. Generate friendly and insightful life reports."

const reportPrompt = `你是一个贴心的生活管家。请根据以下用户的生活记录数据，生成一份温馨、有洞察力的%s生活总结报告。

数据统计：
%s

部分记录：
%s
请用温暖友好的语气，包含以下内容：
1. 整体概述 - 用一两句话概括这段时间的整体感受
2. 消费分析 - 总消费、是否有异常消费
3. 情绪分析 - 情绪状态如何，有什么值得注意的
4. 高光时刻 - 记录中值得回味的事情
5. 小建议 - 基于数据分析给出1-2条生活建议

用中文回复，语气亲切自然，像朋友聊天一样。`
