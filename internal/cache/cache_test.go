package cache

import (
	"context"
	"testing"
	"time"

	"lifeos/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, 30*time.Minute), mr
}

func sampleResult() model.ExtractionResult {
	return model.ExtractionResult{
		RecordTypes:  []model.RecordType{model.TypeExpense, model.TypeMood},
		Amount:       decimal.NewNullDecimal(decimal.RequireFromString("30")),
		Tags:         []string{"餐饮"},
		EmotionScore: -3,
		RecordTime:   "2026-03-10 12:00:00",
		Summary:      "午饭",
	}
}

func TestFingerprint_Normalizes(t *testing.T) {
	assert.Equal(t, Fingerprint("Hello"), Fingerprint("  hello "))
	assert.NotEqual(t, Fingerprint("hello"), Fingerprint("hello!"))
	assert.Contains(t, Fingerprint("x"), "lifeos:parse:")
}

func TestCache_PutGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "午饭30元")
	require.False(t, ok)

	want := sampleResult()
	c.Put(ctx, "午饭30元", want)

	got, ok := c.Get(ctx, "午饭30元")
	require.True(t, ok)
	assert.Equal(t, want.RecordTypes, got.RecordTypes)
	assert.True(t, got.Amount.Valid)
	assert.True(t, want.Amount.Decimal.Equal(got.Amount.Decimal))
	assert.Equal(t, want.Tags, got.Tags)
	assert.Equal(t, want.EmotionScore, got.EmotionScore)
	assert.Equal(t, want.RecordTime, got.RecordTime)

	assert.Equal(t, 30*time.Minute, mr.TTL(Fingerprint("午饭30元")))
}

func TestCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "text", sampleResult())
	mr.FastForward(31 * time.Minute)

	_, ok := c.Get(ctx, "text")
	assert.False(t, ok)
}

func TestCache_UnavailableIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := New(client, time.Minute)
	ctx := context.Background()

	c.Put(ctx, "text", sampleResult())
	_, ok := c.Get(ctx, "text")
	assert.False(t, ok)

	var nilCache *Cache
	_, ok = nilCache.Get(ctx, "text")
	assert.False(t, ok)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(Fingerprint("text"), "not json"))

	_, ok := c.Get(context.Background(), "text")
	assert.False(t, ok)
}

func TestCache_Reports(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.PutReport(ctx, "weekly", 7, "本周报告", time.Hour)

	got, ok := c.GetReport(ctx, "weekly", 7)
	require.True(t, ok)
	assert.Equal(t, "本周报告", got)
	assert.Equal(t, time.Hour, mr.TTL("lifeos:report:weekly:7"))

	_, ok = c.GetReport(ctx, "monthly", 7)
	assert.False(t, ok)
}

func TestCache_DeleteReports(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.PutReport(ctx, "weekly", 7, "本周报告", time.Hour)
	c.PutReport(ctx, "monthly", 7, "本月报告", time.Hour)
	c.PutReport(ctx, "weekly", 8, "别人的", time.Hour)

	c.DeleteReports(ctx, 7)

	_, ok := c.GetReport(ctx, "weekly", 7)
	assert.False(t, ok)
	_, ok = c.GetReport(ctx, "monthly", 7)
	assert.False(t, ok)
	assert.True(t, mr.Exists(ReportKey("weekly", 8)))
}

func TestCache_ClearAll(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "a", sampleResult())
	c.Put(ctx, "b", sampleResult())
	c.PutReport(ctx, "weekly", 1, "r", 0)
	require.NoError(t, mr.Set("other:key", "keep"))
	_, err := mr.Lpush("lifeos:queue:report", "1")
	require.NoError(t, err)

	n, err := c.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, mr.Exists("other:key"))
	assert.True(t, mr.Exists("lifeos:queue:report"))
	assert.False(t, mr.Exists(Fingerprint("a")))
}
