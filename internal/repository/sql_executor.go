package repository

import (
	"context"
	"database/sql"
	"time"

	"lifeos/internal/model"
)

// ReadOnlyExecutor runs ad-hoc SELECT statements inside a read-only
// transaction and returns the rows as column-name maps.
type ReadOnlyExecutor struct {
	db *sql.DB
}

func NewReadOnlyExecutor(db *sql.DB) *ReadOnlyExecutor {
	return &ReadOnlyExecutor{db: db}
}

func (e *ReadOnlyExecutor) Query(ctx context.Context, query string) ([]map[string]any, error) {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(model.TimeLayout)
	default:
		return val
	}
}
