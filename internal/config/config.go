package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"lifeos/internal/model"
)

const DefaultReportSchedule = "0 8 * * 1"

type Env struct {
	LLMTimeout       time.Duration
	CacheTTL         time.Duration
	CacheRuleResults bool
	SQLDialect       string
	ReportSchedule   string
	AutoMigrate      bool
	Port             string
	FrontendURL      string
}

// Load reads process configuration. Unset or malformed values fall back to
// their defaults.
func Load() Env {
	return Env{
		LLMTimeout:       getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		CacheTTL:         getEnvDuration("CACHE_TTL", 30*time.Minute),
		CacheRuleResults: getEnvBool("CACHE_RULE_RESULTS", false),
		SQLDialect:       strings.ToLower(getEnvStr("SQL_DIALECT", "postgres")),
		ReportSchedule:   getEnvStr("REPORT_SCHEDULE", DefaultReportSchedule),
		AutoMigrate:      getEnvBool("LIFEOS_AUTO_MIGRATE", false),
		Port:             getEnvStr("PORT", "8080"),
		FrontendURL:      os.Getenv("FRONTEND_URL"),
	}
}

// EnvStore serves the LLM provider config from the environment. It stands in
// for the llm_config table when no database is available.
type EnvStore struct{}

func (EnvStore) GetLatest(ctx context.Context) (*model.LlmConfig, error) {
	provider := getEnvStr("LLM_PROVIDER", "")
	key := getEnvStr("LLM_API_KEY", "")
	useRules := getEnvBool("LLM_USE_LOCAL_RULES", false)
	if provider == "" && key == "" && !useRules {
		return nil, nil
	}

	if provider == "" {
		provider = model.ProviderOpenAI
	}

	cfg := &model.LlmConfig{
		Provider:      provider,
		APIKey:        key,
		APIURL:        getEnvStr("LLM_API_URL", ""),
		Model:         getEnvStr("LLM_MODEL", ""),
		UseLocalRules: useRules,
	}

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = &t
		}
	}

	return cfg, nil
}

func getEnvStr(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "on", "yes":
		return true
	case "0", "false", "off", "no":
		return false
	default:
		return defaultValue
	}
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
