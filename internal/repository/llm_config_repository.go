package repository

import (
	"context"
	"database/sql"

	"lifeos/internal/model"
)

type LlmConfigRepository struct {
	db *sql.DB
}

func NewLlmConfigRepository(db *sql.DB) *LlmConfigRepository {
	return &LlmConfigRepository{db: db}
}

// GetLatest returns the most recently saved config, or nil when none exists.
func (r *LlmConfigRepository) GetLatest(ctx context.Context) (*model.LlmConfig, error) {
	var c model.LlmConfig
	var apiURL, modelName sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, provider, api_key, api_url, model, temperature, use_local_rules, created_at, updated_at
		FROM llm_config
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&c.ID, &c.Provider, &c.APIKey, &apiURL, &modelName, &c.Temperature, &c.UseLocalRules, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	c.APIURL = apiURL.String
	c.Model = modelName.String
	return &c, nil
}

// Save stores cfg as a new row so that it becomes the latest config.
func (r *LlmConfigRepository) Save(ctx context.Context, cfg *model.LlmConfig) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO llm_config(provider, api_key, api_url, model, temperature, use_local_rules)
		VALUES($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		RETURNING id, created_at, updated_at
	`, cfg.Provider, cfg.APIKey, cfg.APIURL, cfg.Model, cfg.Temperature, cfg.UseLocalRules).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
}

// DeleteAll removes every saved config and returns how many rows went.
func (r *LlmConfigRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM llm_config")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
