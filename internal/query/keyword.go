package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lifeos/internal/model"

	"github.com/shopspring/decimal"
)

const (
	helpMessage = "我可以帮你查询：\n" +
		"• 消费统计：\"这周花了多少钱？\"\n" +
		"• 记录数量：\"这个月记了几条？\"\n" +
		"• 情绪分析：\"最近心情怎么样？\"\n" +
		"• 时间范围：今天、昨天、本周、本月、今年"
	unavailableMessage = "暂时无法读取你的记录，请稍后再试。"
	foodTag            = "餐饮"
)

var (
	expenseTriggers = []string{"花", "消费", "支出", "多少钱", "how much", "spend", "spent"}
	countTriggers   = []string{"多少条", "几条", "数量", "how many"}
	emotionTriggers = []string{"情绪", "心情", "开心", "难过", "mood", "feel"}
	foodTriggers    = []string{"吃饭", "餐饮", "吃", "food", "eat"}
)

type RecordStore interface {
	FindByUserID(ctx context.Context, userID int64) ([]model.LifeRecord, error)
	FindByUserIDAndTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]model.LifeRecord, error)
}

// KeywordEngine answers a fixed set of question shapes directly from the
// user's records without any language model.
type KeywordEngine struct {
	records RecordStore
	now     func() time.Time
}

func NewKeywordEngine(records RecordStore) *KeywordEngine {
	return &KeywordEngine{records: records, now: time.Now}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (k *KeywordEngine) Answer(ctx context.Context, question string, userID int64) string {
	q := strings.ToLower(question)

	switch {
	case containsAny(q, expenseTriggers):
		return k.expense(ctx, q, userID)
	case containsAny(q, countTriggers):
		return k.count(ctx, q, userID)
	case containsAny(q, emotionTriggers):
		return k.emotion(ctx, q, userID)
	default:
		return helpMessage
	}
}

type window struct {
	label string
	start time.Time
	end   time.Time
	all   bool
}

// detectWindow maps time words in q to a half-open [start, end) range.
func detectWindow(q string, now time.Time, allLabel string) window {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	switch {
	case containsAny(q, []string{"今天", "今日", "today"}):
		return window{label: "今天", start: today, end: tomorrow}
	case containsAny(q, []string{"昨天", "yesterday"}):
		return window{label: "昨天", start: today.AddDate(0, 0, -1), end: today}
	case containsAny(q, []string{"本周", "这周", "星期", "this week"}):
		return window{label: "本周", start: now.AddDate(0, 0, -7), end: tomorrow}
	case strings.Contains(q, "最近"):
		return window{label: "最近一周", start: now.AddDate(0, 0, -7), end: tomorrow}
	case containsAny(q, []string{"本月", "这个月", "这月", "this month"}):
		return window{label: "本月", start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), end: tomorrow}
	case containsAny(q, []string{"今年", "这一年", "this year"}):
		return window{label: "今年", start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), end: tomorrow}
	default:
		return window{label: allLabel, all: true}
	}
}

func (k *KeywordEngine) load(ctx context.Context, userID int64, w window) ([]model.LifeRecord, error) {
	if w.all {
		return k.records.FindByUserID(ctx, userID)
	}
	return k.records.FindByUserIDAndTimeRange(ctx, userID, w.start, w.end)
}

func (k *KeywordEngine) expense(ctx context.Context, q string, userID int64) string {
	w := detectWindow(q, k.now(), "总计")
	records, err := k.load(ctx, userID, w)
	if err != nil {
		slog.Error("error loading records for expense query", "user_id", userID, "error", err)
		return unavailableMessage
	}

	total := decimal.Zero
	food := decimal.Zero
	count := 0
	for _, r := range records {
		if !r.HasType(model.TypeExpense) {
			continue
		}
		count++
		if !r.Amount.Valid {
			continue
		}
		total = total.Add(r.Amount.Decimal)
		if isFood(r) {
			food = food.Add(r.Amount.Decimal)
		}
	}

	breakdown := ""
	if containsAny(q, foodTriggers) {
		breakdown = fmt.Sprintf("，其中餐饮消费 ¥%s", food.StringFixed(2))
	}

	return fmt.Sprintf("%s消费统计：\n💰 总支出：¥%s\n📝 消费笔数：%d笔%s",
		w.label, total.StringFixed(2), count, breakdown)
}

func isFood(r model.LifeRecord) bool {
	for _, t := range r.Tags {
		if t == foodTag || strings.EqualFold(t, "food") {
			return true
		}
	}
	return false
}

func (k *KeywordEngine) count(ctx context.Context, q string, userID int64) string {
	w := detectWindow(q, k.now(), "总共")
	records, err := k.load(ctx, userID, w)
	if err != nil {
		slog.Error("error loading records for count query", "user_id", userID, "error", err)
		return unavailableMessage
	}

	counts := make(map[model.RecordType]int)
	for _, r := range records {
		for _, t := range model.RecordTypeOrder {
			if r.HasType(t) {
				counts[t]++
			}
		}
	}

	return fmt.Sprintf("%s记录了 %d 条生活轨迹：\n💰 消费记录：%d条\n📔 日记记录：%d条\n📅 事件记录：%d条\n😊 情绪记录：%d条",
		w.label, len(records), counts[model.TypeExpense], counts[model.TypeDiary], counts[model.TypeEvent], counts[model.TypeMood])
}

func (k *KeywordEngine) emotion(ctx context.Context, q string, userID int64) string {
	w := detectWindow(q, k.now(), "总体")
	records, err := k.load(ctx, userID, w)
	if err != nil {
		slog.Error("error loading records for emotion query", "user_id", userID, "error", err)
		return unavailableMessage
	}

	sum, n := 0, 0
	for _, r := range records {
		if r.EmotionScore == nil {
			continue
		}
		sum += *r.EmotionScore
		n++
	}

	if n == 0 {
		return w.label + "还没有情绪记录哦，试着记录一下你的心情吧！"
	}

	avg := float64(sum) / float64(n)
	return fmt.Sprintf("%s情绪分析：\n📊 平均情绪分数：%.1f\n😊 情绪状态：%s\n📝 情绪记录数：%d条",
		w.label, avg, EmotionBand(avg), n)
}

// EmotionBand describes an average emotion score.
func EmotionBand(avg float64) string {
	switch {
	case avg >= 7:
		return "非常积极 😄"
	case avg >= 3:
		return "比较开心 🙂"
	case avg >= 0:
		return "情绪平稳 😐"
	case avg >= -3:
		return "略显低落 😕"
	case avg >= -7:
		return "比较消极 😔"
	default:
		return "情绪低落 😢"
	}
}
