package service

import (
	"context"
	"time"

	"moderation/pkg/metrics"
	"moderation/pkg/models"
	"moderation/pkg/moderation"
)

// Analyzer is implemented by *moderation.Engine.
type Analyzer interface {
	AnalyzeReview(ctx context.Context, text string, rating int) (moderation.Verdict, error)
	CleanText(text string) string
}

// Service enforces the review contract in front of the engine and records
// metrics. It is shared by the HTTP API and the stream worker.
type Service struct {
	name          string
	analyzer      Analyzer
	metrics       *metrics.Metrics
	maxTextLength int
	now           func() time.Time
}

// New returns a Service. m may be nil. maxTextLength of zero disables the
// length check.
func New(name string, analyzer Analyzer, m *metrics.Metrics, maxTextLength int) *Service {
	return &Service{
		name:          name,
		analyzer:      analyzer,
		metrics:       m,
		maxTextLength: maxTextLength,
		now:           time.Now,
	}
}

// Moderate validates r, assigns it an ID if it has none and analyzes it.
// Validation errors wrap the models.Err* sentinels, scorer failures wrap
// moderation.ErrSentiment.
func (s *Service) Moderate(ctx context.Context, r models.Review) (models.VerdictEvent, error) {
	if err := r.Validate(s.maxTextLength); err != nil {
		return models.VerdictEvent{}, err
	}
	if err := r.EnsureID(); err != nil {
		return models.VerdictEvent{}, err
	}

	start := s.now()
	verdict, err := s.analyzer.AnalyzeReview(ctx, *r.Text, r.Rating)
	if err != nil {
		s.metrics.IncrementScorerErrors()
		return models.VerdictEvent{}, err
	}
	end := s.now()
	s.metrics.ObserveVerdict(verdict, end.Sub(start))

	return models.VerdictEvent{
		ReviewID:    r.ID,
		BookID:      r.BookID,
		UserID:      r.UserID,
		Verdict:     verdict,
		ModeratedAt: end.UTC(),
		Service:     s.name,
	}, nil
}

// MaxTextLength is the character limit Moderate enforces, zero if none.
func (s *Service) MaxTextLength() int {
	return s.maxTextLength
}

// CleanText masks profanity in text.
func (s *Service) CleanText(text string) string {
	return s.analyzer.CleanText(text)
}
