package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

type Text2SQL interface {
	Translate(ctx context.Context, question string, userID int64) (string, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string, userID int64) string
}

// Service answers questions with Text2SQL first and the keyword engine as
// fallback. It never returns an error.
type Service struct {
	translator Text2SQL
	keywords   Answerer
}

func NewService(translator Text2SQL, keywords Answerer) *Service {
	return &Service{translator: translator, keywords: keywords}
}

func (s *Service) Answer(ctx context.Context, question string, userID int64) string {
	if s.translator != nil {
		answer, err := s.translator.Translate(ctx, question, userID)
		if err == nil && strings.TrimSpace(answer) != "" {
			return answer
		}
		if err == nil {
			err = errors.New("empty answer")
		}
		slog.Warn("Text2SQL failed, falling back to keyword query", "user_id", userID, "error", err)
	}

	return s.keywords.Answer(ctx, question, userID)
}
