package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lifeos/internal/model"
	"lifeos/pkg/llm"

	"github.com/go-playground/assert/v2"
)

type scriptedChat struct {
	replies  []string
	err      error
	requests []llm.ChatRequest
}

func (s *scriptedChat) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptedChat) ModelName() string {
	return "scripted"
}

type fakeExecutor struct {
	rows    []map[string]any
	err     error
	queries []string
}

func (f *fakeExecutor) Query(ctx context.Context, query string) ([]map[string]any, error) {
	f.queries = append(f.queries, query)
	return f.rows, f.err
}

type staticConfigs struct {
	cfg *model.LlmConfig
	err error
}

func (s staticConfigs) GetLatest(ctx context.Context) (*model.LlmConfig, error) {
	return s.cfg, s.err
}

func liveConfig() staticConfigs {
	return staticConfigs{cfg: &model.LlmConfig{Provider: "openai", APIKey: "sk-live"}}
}

func newTestTranslator(configs ConfigStore, chat llm.ChatClient, exec SQLExecutor) *Translator {
	factory := func(cfg *model.LlmConfig) (llm.ChatClient, error) { return chat, nil }
	return NewTranslator(configs, factory, exec, DialectPostgres)
}

func TestTranslate_FullRoundTrip(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		"```sql\nSELECT SUM(amount) AS total FROM life_records WHERE user_id = 7 AND 'expense' = ANY(record_types);\n```",
		"  本周你一共花了 **¥130.00**。  ",
	}}
	exec := &fakeExecutor{rows: []map[string]any{{"total": "130.00"}}}
	tr := newTestTranslator(liveConfig(), chat, exec)

	got, err := tr.Translate(context.Background(), "这周花了多少钱", 7)

	assert.Equal(t, nil, err)
	assert.Equal(t, "本周你一共花了 **¥130.00**。", got)
	assert.Equal(t, []string{"SELECT SUM(amount) AS total FROM life_records WHERE user_id = 7 AND 'expense' = ANY(record_types)"}, exec.queries)
	assert.Equal(t, 2, len(chat.requests))
	assert.Equal(t, 0.1, chat.requests[0].Temperature)
	assert.Equal(t, true, strings.Contains(chat.requests[0].User, `MUST include "user_id = 7"`))
	assert.Equal(t, 0.7, chat.requests[1].Temperature)
	assert.Equal(t, true, strings.Contains(chat.requests[1].User, `[{"total":"130.00"}]`))
}

func TestTranslate_EmptyRowsSkipNarration(t *testing.T) {
	chat := &scriptedChat{replies: []string{"SELECT id FROM life_records WHERE user_id = 1"}}
	tr := newTestTranslator(liveConfig(), chat, &fakeExecutor{})

	got, err := tr.Translate(context.Background(), "昨天做了什么", 1)

	assert.Equal(t, nil, err)
	assert.Equal(t, NoRecordsMessage, got)
	assert.Equal(t, 1, len(chat.requests))
}

func TestTranslate_NotConfigured(t *testing.T) {
	chat := &scriptedChat{}
	tr := newTestTranslator(staticConfigs{}, chat, &fakeExecutor{})

	_, err := tr.Translate(context.Background(), "x", 1)
	assert.Equal(t, true, errors.Is(err, llm.ErrNotConfigured))

	tr = newTestTranslator(staticConfigs{err: errors.New("db down")}, chat, &fakeExecutor{})
	_, err = tr.Translate(context.Background(), "x", 1)
	assert.Equal(t, true, errors.Is(err, llm.ErrNotConfigured))
	assert.Equal(t, 0, len(chat.requests))
}

func TestTranslate_ExecutionError(t *testing.T) {
	chat := &scriptedChat{replies: []string{"SELECT id FROM life_records WHERE user_id = 1"}}
	tr := newTestTranslator(liveConfig(), chat, &fakeExecutor{err: errors.New("syntax error")})

	_, err := tr.Translate(context.Background(), "x", 1)
	assert.Equal(t, true, errors.Is(err, ErrExecution))
}

func TestTranslate_UnsafeSQLNotExecuted(t *testing.T) {
	chat := &scriptedChat{replies: []string{"DELETE FROM life_records WHERE user_id = 1"}}
	exec := &fakeExecutor{}
	tr := newTestTranslator(liveConfig(), chat, exec)

	_, err := tr.Translate(context.Background(), "x", 1)
	assert.Equal(t, true, errors.Is(err, ErrUnsafeSQL))
	assert.Equal(t, 0, len(exec.queries))
}

func TestCheckSQL(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ok    bool
	}{
		{"simple select", "SELECT id FROM life_records WHERE user_id = 1", true},
		{"cte", "WITH x AS (SELECT * FROM life_records WHERE user_id = 1) SELECT COUNT(*) FROM x", true},
		{"column names with write words", "SELECT updated_at, created_at FROM life_records WHERE user_id = 1", true},
		{"missing user filter", "SELECT id FROM life_records", false},
		{"two statements", "SELECT 1 FROM life_records WHERE user_id = 1; DROP TABLE life_records", false},
		{"update", "UPDATE life_records SET amount = 0 WHERE user_id = 1", false},
		{"empty", "", false},
		{"semicolon inside literal", "SELECT id FROM life_records WHERE user_id = 1 AND content LIKE '%;%'", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSQL(tt.query)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrUnsafeSQL) {
				t.Errorf("got %v, want ErrUnsafeSQL", err)
			}
		})
	}
}

func TestBuildSQLPrompt_Dialects(t *testing.T) {
	pg := buildSQLPrompt(DialectPostgres, "q", 3)
	assert.Equal(t, true, strings.Contains(pg, "PostgreSQL"))
	assert.Equal(t, true, strings.Contains(pg, "ANY(record_types)"))

	lite := buildSQLPrompt(DialectSQLite, "q", 3)
	assert.Equal(t, true, strings.Contains(lite, "SQLite"))
	assert.Equal(t, true, strings.Contains(lite, "json_each"))
}
