package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifeos/internal/model"

	"github.com/go-playground/assert/v2"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.Local)

type fakeRecordStore struct {
	records []model.LifeRecord
	err     error
}

func (f *fakeRecordStore) FindByUserID(ctx context.Context, userID int64) ([]model.LifeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.LifeRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) FindByUserIDAndTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]model.LifeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.LifeRecord
	for _, r := range f.records {
		if r.UserID == userID && !r.RecordTime.Before(start) && r.RecordTime.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func score(n int) *int {
	return &n
}

func at(day, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.Local)
}

func sampleRecords() []model.LifeRecord {
	return []model.LifeRecord{
		{ID: 1, UserID: 1, RecordTypes: []model.RecordType{model.TypeExpense}, Amount: decimal.NewNullDecimal(decimal.NewFromInt(30)), Tags: []string{"消费", "餐饮"}, EmotionScore: score(-2), RecordTime: at(10, 12)},
		{ID: 2, UserID: 1, RecordTypes: []model.RecordType{model.TypeMood}, Tags: []string{"情绪"}, EmotionScore: score(-4), RecordTime: at(10, 9)},
		{ID: 3, UserID: 1, RecordTypes: []model.RecordType{model.TypeDiary}, Tags: []string{"日记"}, RecordTime: at(10, 14)},
		{ID: 4, UserID: 1, RecordTypes: []model.RecordType{model.TypeExpense, model.TypeEvent}, Amount: decimal.NewNullDecimal(decimal.NewFromInt(100)), Tags: []string{"消费", "事件", "娱乐"}, EmotionScore: score(6), RecordTime: at(9, 20)},
		{ID: 5, UserID: 2, RecordTypes: []model.RecordType{model.TypeExpense}, Amount: decimal.NewNullDecimal(decimal.NewFromInt(999)), RecordTime: at(10, 10)},
	}
}

func newTestKeywordEngine(store RecordStore) *KeywordEngine {
	k := NewKeywordEngine(store)
	k.now = func() time.Time { return testNow }
	return k
}

func TestKeywordEngine_CountToday(t *testing.T) {
	k := newTestKeywordEngine(&fakeRecordStore{records: sampleRecords()})

	got := k.Answer(context.Background(), "今天记了几条", 1)

	assert.Equal(t, "今天记录了 3 条生活轨迹：\n💰 消费记录：1条\n📔 日记记录：1条\n📅 事件记录：0条\n😊 情绪记录：1条", got)
}

func TestKeywordEngine_CountAllTime(t *testing.T) {
	k := newTestKeywordEngine(&fakeRecordStore{records: sampleRecords()})

	got := k.Answer(context.Background(), "一共有多少条记录", 1)

	assert.Equal(t, "总共记录了 4 条生活轨迹：\n💰 消费记录：2条\n📔 日记记录：1条\n📅 事件记录：1条\n😊 情绪记录：1条", got)
}

func TestKeywordEngine_ExpenseWindows(t *testing.T) {
	k := newTestKeywordEngine(&fakeRecordStore{records: sampleRecords()})

	tests := []struct {
		question string
		want     string
	}{
		{"这周花了多少钱", "本周消费统计：\n💰 总支出：¥130.00\n📝 消费笔数：2笔"},
		{"今天吃饭花了多少钱", "今天消费统计：\n💰 总支出：¥30.00\n📝 消费笔数：1笔，其中餐饮消费 ¥30.00"},
		{"昨天的支出", "昨天消费统计：\n💰 总支出：¥100.00\n📝 消费笔数：1笔"},
		{"本月消费", "本月消费统计：\n💰 总支出：¥130.00\n📝 消费笔数：2笔"},
		{"how much did I spend", "总计消费统计：\n💰 总支出：¥130.00\n📝 消费笔数：2笔"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, k.Answer(context.Background(), tt.question, 1))
		})
	}
}

func TestKeywordEngine_Emotion(t *testing.T) {
	k := newTestKeywordEngine(&fakeRecordStore{records: sampleRecords()})

	got := k.Answer(context.Background(), "今天心情怎么样", 1)
	assert.Equal(t, "今天情绪分析：\n📊 平均情绪分数：-3.0\n😊 情绪状态：略显低落 😕\n📝 情绪记录数：2条", got)

	got = k.Answer(context.Background(), "最近心情怎么样", 1)
	assert.Equal(t, "最近一周情绪分析：\n📊 平均情绪分数：0.0\n😊 情绪状态：情绪平稳 😐\n📝 情绪记录数：3条", got)
}

func TestKeywordEngine_EmotionEmpty(t *testing.T) {
	k := newTestKeywordEngine(&fakeRecordStore{records: sampleRecords()})

	got := k.Answer(context.Background(), "我的心情", 2)

	assert.Equal(t, "总体还没有情绪记录哦，试着记录一下你的心情吧！", got)
}

func TestKeywordEngine_Help(t *testing.T) {
	k := newTestKeywordEngine(&fakeRecordStore{})

	assert.Equal(t, helpMessage, k.Answer(context.Background(), "你好", 1))
}

func TestKeywordEngine_StoreError(t *testing.T) {
	k := newTestKeywordEngine(&fakeRecordStore{err: errors.New("db down")})

	assert.Equal(t, unavailableMessage, k.Answer(context.Background(), "今天花了多少", 1))
}

func TestEmotionBand(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{9, "非常积极 😄"},
		{7, "非常积极 😄"},
		{3, "比较开心 🙂"},
		{0, "情绪平稳 😐"},
		{-0.5, "略显低落 😕"},
		{-3, "略显低落 😕"},
		{-7, "比较消极 😔"},
		{-7.5, "情绪低落 😢"},
	}

	for _, tt := range tests {
		if got := EmotionBand(tt.avg); got != tt.want {
			t.Errorf("EmotionBand(%v) = %q, want %q", tt.avg, got, tt.want)
		}
	}
}
