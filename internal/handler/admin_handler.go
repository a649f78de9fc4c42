package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"lifeos/internal/model"
	"lifeos/pkg/llm"

	"github.com/gin-gonic/gin"
)

type ConfigStore interface {
	GetLatest(ctx context.Context) (*model.LlmConfig, error)
	Save(ctx context.Context, cfg *model.LlmConfig) error
	DeleteAll(ctx context.Context) (int64, error)
}

type CacheClearer interface {
	ClearAll(ctx context.Context) (int64, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type AdminHandler struct {
	configs ConfigStore
	cache   CacheClearer
	db      Pinger
}

func NewAdminHandler(configs ConfigStore, cache CacheClearer, db Pinger) *AdminHandler {
	return &AdminHandler{configs: configs, cache: cache, db: db}
}

func (h *AdminHandler) GetLlmConfig(c *gin.Context) {
	cfg, err := h.configs.GetLatest(c.Request.Context())
	if err != nil {
		slog.Error("error fetching llm config", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if cfg == nil {
		c.JSON(http.StatusOK, LlmConfigResponse{Provider: model.ProviderOpenAI})
		return
	}

	c.JSON(http.StatusOK, toLlmConfigResponse(cfg))
}

func (h *AdminHandler) PutLlmConfig(c *gin.Context) {
	var req LlmConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Temperature must be between 0 and 2"})
		return
	}

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = model.ProviderOpenAI
	}

	cfg := &model.LlmConfig{
		Provider:      provider,
		APIKey:        strings.TrimSpace(req.APIKey),
		APIURL:        strings.TrimSpace(req.APIURL),
		Model:         strings.TrimSpace(req.Model),
		Temperature:   req.Temperature,
		UseLocalRules: req.UseLocalRules,
	}

	// A masked key echoed back from GET keeps the stored one.
	if strings.HasPrefix(cfg.APIKey, "****") {
		current, err := h.configs.GetLatest(c.Request.Context())
		if err != nil {
			slog.Error("error fetching llm config", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		cfg.APIKey = ""
		if current != nil {
			cfg.APIKey = current.APIKey
		}
	}

	if err := h.configs.Save(c.Request.Context(), cfg); err != nil {
		slog.Error("error saving llm config", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info("llm config updated", "provider", cfg.Provider, "family", llm.ProviderFamily(cfg.Provider), "use_local_rules", cfg.UseLocalRules)

	c.JSON(http.StatusOK, toLlmConfigResponse(cfg))
}

// DeleteLlmConfig removes every stored config. Extraction then falls back
// to the local rules until a new config is saved.
func (h *AdminHandler) DeleteLlmConfig(c *gin.Context) {
	removed, err := h.configs.DeleteAll(c.Request.Context())
	if err != nil {
		slog.Error("error deleting llm config", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info("llm config deleted", "rows", removed)

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func toLlmConfigResponse(cfg *model.LlmConfig) LlmConfigResponse {
	res := LlmConfigResponse{
		Provider:      cfg.Provider,
		APIURL:        cfg.APIURL,
		Model:         cfg.Model,
		Temperature:   cfg.Temperature,
		UseLocalRules: cfg.UseLocalRules,
		Configured:    cfg.Usable(),
	}
	if cfg.APIKey != "" {
		res.APIKey = maskKey(cfg.APIKey)
	}
	if !cfg.UpdatedAt.IsZero() {
		res.UpdatedAt = cfg.UpdatedAt.Format(model.TimeLayout)
	}
	return res
}

func (h *AdminHandler) ClearCache(c *gin.Context) {
	removed, err := h.cache.ClearAll(c.Request.Context())
	if err != nil {
		slog.Error("error clearing cache", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cache unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *AdminHandler) GetHealth(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}
