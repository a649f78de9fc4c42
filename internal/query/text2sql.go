package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"lifeos/internal/model"
	"lifeos/pkg/llm"
)

const (
	NoRecordsMessage = "没有找到相关记录。"

	sqlTemperature = 0.1
)

var (
	ErrExecution = errors.New("generated SQL failed to execute")
	ErrUnsafeSQL = errors.New("generated SQL rejected")
)

var writeKeyword = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|vacuum|attach|pragma)\b`)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type SQLExecutor interface {
	Query(ctx context.Context, query string) ([]map[string]any, error)
}

type ConfigStore interface {
	GetLatest(ctx context.Context) (*model.LlmConfig, error)
}

// Translator answers a question by asking a model for SQL, running it
// read-only and asking the model to narrate the rows.
type Translator struct {
	configs   ConfigStore
	newClient llm.ClientFactory
	exec      SQLExecutor
	dialect   Dialect
}

func NewTranslator(configs ConfigStore, factory llm.ClientFactory, exec SQLExecutor, dialect Dialect) *Translator {
	if factory == nil {
		factory = llm.NewChatClient
	}
	if dialect == "" {
		dialect = DialectPostgres
	}
	return &Translator{configs: configs, newClient: factory, exec: exec, dialect: dialect}
}

func (t *Translator) Translate(ctx context.Context, question string, userID int64) (string, error) {
	cfg, err := t.configs.GetLatest(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: load config: %w", llm.ErrNotConfigured, err)
	}
	if !cfg.Usable() {
		return "", fmt.Errorf("%w: missing or placeholder api key", llm.ErrNotConfigured)
	}

	client, err := t.newClient(cfg)
	if err != nil {
		return "", err
	}

	query, err := t.generateSQL(ctx, client, question, userID)
	if err != nil {
		return "", err
	}
	slog.Info("generated SQL", "user_id", userID, "sql", query)

	rows, err := t.exec.Query(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExecution, err)
	}

	if len(rows) == 0 {
		return NoRecordsMessage, nil
	}

	return t.narrate(ctx, client, cfg, question, query, rows)
}

func (t *Translator) generateSQL(ctx context.Context, client llm.ChatClient, question string, userID int64) (string, error) {
	reply, err := client.Complete(ctx, llm.ChatRequest{
		System:      fmt.Sprintf("You are a SQL expert. Generate only valid %s queries.", t.dialect.displayName()),
		User:        buildSQLPrompt(t.dialect, question, userID),
		Temperature: sqlTemperature,
	})
	if err != nil {
		return "", err
	}

	query := strings.TrimSpace(llm.StripCodeFence(reply, "sql"))
	query = strings.TrimRight(query, "; \n\t")
	if err := CheckSQL(query); err != nil {
		return "", err
	}
	return query, nil
}

// CheckSQL applies coarse read-only guardrails to model-written SQL. It is
// not a sandbox; execution also happens inside a read-only transaction.
func CheckSQL(query string) error {
	if query == "" {
		return fmt.Errorf("%w: empty statement", ErrUnsafeSQL)
	}
	// Any ';' is rejected, including one inside a string literal. Such
	// questions fall through to the keyword engine.
	if strings.Contains(query, ";") {
		return fmt.Errorf("%w: multiple statements", ErrUnsafeSQL)
	}

	fields := strings.Fields(query)
	first := strings.ToUpper(fields[0])
	if first != "SELECT" && first != "WITH" {
		return fmt.Errorf("%w: statement must start with SELECT or WITH", ErrUnsafeSQL)
	}
	if writeKeyword.MatchString(query) {
		return fmt.Errorf("%w: write keyword present", ErrUnsafeSQL)
	}
	if !strings.Contains(strings.ToLower(query), "user_id") {
		return fmt.Errorf("%w: missing user_id filter", ErrUnsafeSQL)
	}
	return nil
}

func (t *Translator) narrate(ctx context.Context, client llm.ChatClient, cfg *model.LlmConfig, question, query string, rows []map[string]any) (string, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}

	reply, err := client.Complete(ctx, llm.ChatRequest{
		System:      "You are a helpful assistant that presents database query results in a natural, friendly way.",
		User:        fmt.Sprintf(narrationPrompt, question, query, len(rows), string(data)),
		Temperature: cfg.TemperatureOr(llm.DefaultTemperature),
	})
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(reply)
	if answer == "" {
		return "", fmt.Errorf("%w: empty narration", llm.ErrMalformedResponse)
	}
	return answer, nil
}

func (d Dialect) displayName() string {
	if d == DialectSQLite {
		return "SQLite"
	}
	return "PostgreSQL"
}

func buildSQLPrompt(d Dialect, question string, userID int64) string {
	return fmt.Sprintf(sqlPrompt,
		d.displayName(), recordSchema, userID, question, d.displayName(), userID, d.dateIdioms(), d.typeFilter())
}

func (d Dialect) dateIdioms() string {
	if d == DialectSQLite {
		return `date(record_time) = date('now', 'localtime') for today,
   record_time >= datetime('now', 'localtime', '-7 days') for the last 7 days,
   record_time >= datetime('now', 'localtime', '-30 days') for the last 30 days`
	}
	return `record_time::date = CURRENT_DATE for today,
   record_time >= NOW() - INTERVAL '7 days' for the last 7 days,
   record_time >= NOW() - INTERVAL '30 days' for the last 30 days,
   record_time >= date_trunc('month', NOW()) for this month`
}

func (d Dialect) typeFilter() string {
	if d == DialectSQLite {
		return `record_types is a JSON array; filter a type with: EXISTS (SELECT 1 FROM json_each(record_types) WHERE value = 'expense')`
	}
	return `record_types is a TEXT[] array; filter a type with: 'expense' = ANY(record_types). tags is also TEXT[]; filter a tag with: '餐饮' = ANY(tags)`
}

const recordSchema = `Table: life_records
Columns:
- id: BIGINT, primary key
- user_id: BIGINT, the user's ID, MUST be filtered in WHERE clause
- content: TEXT, the original user input text
- record_types: array of 'expense', 'mood', 'event', 'diary' (a record may have several)
- amount: NUMERIC(10,2), monetary amount for expense records, NULL otherwise
- tags: array of short Chinese tags such as 餐饮, 交通, 购物, 娱乐, 生活, 工作
- emotion_score: INT, -10 to 10, negative for negative emotions
- record_time: TIMESTAMP, when the event occurred
- created_at: TIMESTAMP, when the record was created
- updated_at: TIMESTAMP, when the record was last updated`

const sqlPrompt = `Convert the following natural language question into a single %s query.

Database Schema:
%s

Current User ID: %d
User Question: "%s"

Requirements:
1. Output ONLY the SQL query, no explanation
2. Use standard %s syntax and a single SELECT statement
3. CRITICAL: MUST include "user_id = %d" in the WHERE clause
4. Use WHERE clauses for time ranges (today, this week, this month, ...). For dates use:
   %s
5. %s
6. Always include id in SELECT when returning individual records
7. Use aggregate functions (SUM, COUNT, AVG) when the question asks for totals, counts or averages
8. Handle Chinese text properly

SQL Query:`

const narrationPrompt = `User asked: "%s"
SQL executed: %s
Results (%d rows): %s

Answer the user's question in Chinese, in a natural and friendly way, using only these results.
Formatting requirements:
1. Use Markdown
2. Format monetary amounts with the ¥ symbol (e.g. ¥10.00)
3. Use the EXACT date values from the results; never change or invent dates
4. Format dates as YYYY年MM月DD日 (e.g. 2026年02月25日)
5. Use bullet points (• or -) for lists
6. Use **bold** for important numbers
7. Keep the response concise

Response (in Markdown):`
