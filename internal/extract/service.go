package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lifeos/internal/model"
)

type ResultCache interface {
	Get(ctx context.Context, text string) (model.ExtractionResult, bool)
	Put(ctx context.Context, text string, result model.ExtractionResult)
}

type ConfigStore interface {
	GetLatest(ctx context.Context) (*model.LlmConfig, error)
}

type LLMExtractor interface {
	Extract(ctx context.Context, text string, cfg *model.LlmConfig) (model.ExtractionResult, error)
}

type RuleClassifier interface {
	Classify(text string) model.ExtractionResult
}

type Options struct {
	// CacheRuleResults also caches results produced by the local rules.
	CacheRuleResults bool
}

// Service runs the extraction chain: cache, then the configured LLM, then
// local rules. It always returns a usable result.
type Service struct {
	cache   ResultCache
	configs ConfigStore
	llm     LLMExtractor
	rules   RuleClassifier
	opts    Options
	now     func() time.Time
}

func NewService(cache ResultCache, configs ConfigStore, llm LLMExtractor, rules RuleClassifier, opts Options) *Service {
	return &Service{
		cache:   cache,
		configs: configs,
		llm:     llm,
		rules:   rules,
		opts:    opts,
		now:     time.Now,
	}
}

func (s *Service) Extract(ctx context.Context, text string) model.ExtractionResult {
	if strings.TrimSpace(text) == "" {
		return model.DefaultResult(model.EmptyInputSummary, s.now())
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, text); ok {
			slog.Info("using cached parse result")
			return cached
		}
	}

	cfg := s.latestConfig(ctx)
	if cfg != nil && cfg.UseLocalRules {
		slog.Info("local rules enabled, skipping LLM")
		return s.fromRules(ctx, text)
	}

	if s.llm != nil {
		result, err := s.llm.Extract(ctx, text, cfg)
		if err == nil {
			if s.cache != nil {
				s.cache.Put(ctx, text, result)
			}
			return result
		}
		slog.Warn("LLM extraction failed, falling back to local rules", "error", err)
	}

	return s.fromRules(ctx, text)
}

func (s *Service) latestConfig(ctx context.Context) *model.LlmConfig {
	if s.configs == nil {
		return nil
	}
	cfg, err := s.configs.GetLatest(ctx)
	if err != nil {
		slog.Warn("error loading LLM config", "error", err)
		return nil
	}
	return cfg
}

func (s *Service) fromRules(ctx context.Context, text string) model.ExtractionResult {
	result := s.rules.Classify(text)
	if s.opts.CacheRuleResults && s.cache != nil {
		s.cache.Put(ctx, text, result)
	}
	return result
}
