// Package app wires the repositories, cache and services shared by the
// lifeos binaries.
package app

import (
	"context"
	"database/sql"
	"time"

	"lifeos/internal/cache"
	"lifeos/internal/config"
	"lifeos/internal/extract"
	"lifeos/internal/model"
	"lifeos/internal/query"
	"lifeos/internal/report"
	"lifeos/internal/repository"
	"lifeos/internal/rules"
	"lifeos/pkg/llm"

	"github.com/redis/go-redis/v9"
)

type ConfigStore interface {
	GetLatest(ctx context.Context) (*model.LlmConfig, error)
}

type App struct {
	Env       config.Env
	Cache     *cache.Cache
	Configs   ConfigStore
	Extractor *extract.Service
	Reports   extract.ReportInvalidator

	// Set only when a database is available.
	ConfigRepo *repository.LlmConfigRepository
	Records    *repository.RecordRepository
	Tracker    *extract.Tracker
	Query      *query.Service
	Reporter   *report.Reporter
}

// New builds the services. db and rdb may be nil: without a database the
// provider config comes from the environment and only extraction is
// available, and without Redis nothing is cached.
func New(env config.Env, db *sql.DB, rdb *redis.Client) *App {
	timeout := env.LLMTimeout
	factory := func(cfg *model.LlmConfig) (llm.ChatClient, error) {
		return llm.NewChatClientWithTimeout(cfg, timeout)
	}

	a := &App{Env: env}
	if rdb != nil {
		a.Cache = cache.New(rdb, env.CacheTTL)
		a.Reports = a.Cache
	}

	if db != nil {
		a.ConfigRepo = repository.NewLlmConfigRepository(db)
		a.Configs = a.ConfigRepo
	} else {
		a.Configs = config.EnvStore{}
	}

	a.Extractor = extract.NewService(resultCache(a.Cache), a.Configs, llm.NewExtractor(factory), rules.Default(),
		extract.Options{CacheRuleResults: env.CacheRuleResults})

	if db == nil {
		return a
	}

	a.Records = repository.NewRecordRepository(db)
	a.Tracker = extract.NewTracker(a.Extractor, a.Records, a.Reports)

	translator := query.NewTranslator(a.Configs, factory, repository.NewReadOnlyExecutor(db), query.Dialect(env.SQLDialect))
	a.Query = query.NewService(translator, query.NewKeywordEngine(a.Records))

	ttl := env.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	a.Reporter = report.NewReporter(a.Records, a.Configs, reportCache(a.Cache), factory, ttl)

	return a
}

// A nil *cache.Cache must not be stored in an interface, or the nil
// checks in the services would not see it.
func resultCache(c *cache.Cache) extract.ResultCache {
	if c == nil {
		return nil
	}
	return c
}

func reportCache(c *cache.Cache) report.ReportCache {
	if c == nil {
		return nil
	}
	return c
}
