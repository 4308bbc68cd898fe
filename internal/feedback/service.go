package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dgh-platform/feedback-service/internal/observability/metrics"
	"github.com/dgh-platform/feedback-service/internal/sentiment"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// processingStore is the slice of Store the processing service uses.
type processingStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Feedback, error)
	SetProcessed(ctx context.Context, id uuid.UUID, upd ProcessedUpdate) error
	GetOrCreateTheme(ctx context.Context, name string) (*Theme, error)
}

// ThemeExtractor proposes a theme name for processed feedback. Extraction is
// best-effort; a failure falls back to the rule-based theme.
type ThemeExtractor interface {
	ExtractTheme(ctx context.Context, text string, label sentiment.Label, rating int) (string, error)
}

// Service runs the feedback processing lifecycle: unprocessed → processed,
// driven by the sentiment classifier.
type Service struct {
	store      processingStore
	classifier sentiment.Classifier
	themes     ThemeExtractor
	metrics    *metrics.FeedbackMetrics
	logger     *logging.Logger
	timeout    time.Duration
	now        func() time.Time
}

// ServiceConfig wires a processing Service.
type ServiceConfig struct {
	Store      *Store
	Classifier sentiment.Classifier
	Themes     ThemeExtractor
	Metrics    *metrics.FeedbackMetrics
	Logger     *logging.Logger
	Timeout    time.Duration
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Service{
		store:      cfg.Store,
		classifier: cfg.Classifier,
		themes:     cfg.Themes,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		timeout:    cfg.Timeout,
		now:        time.Now,
	}
}

// Process classifies one feedback and persists the result. On classifier
// failure the row is left untouched so the caller can retry; sentiment
// fields are never partially set. Re-processing an already processed
// feedback overwrites the previous result (last-write-wins).
func (s *Service) Process(ctx context.Context, id uuid.UUID) (*Feedback, error) {
	f, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	classifyCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	res, err := s.classifier.Classify(classifyCtx, f.Description)
	s.metrics.ObserveClassifyLatency(s.now().Sub(start).Seconds())
	if err != nil {
		s.metrics.ObserveProcessed("failed", "")
		s.logger.Error("classification failed", "error", err, "feedback_id", f.FeedbackID)
		return nil, fmt.Errorf("feedback: classify %s: %w", f.FeedbackID, err)
	}

	themeID := s.assignTheme(ctx, f, res.Label)

	processedAt := s.now()
	upd := ProcessedUpdate{Sentiment: res, ThemeID: themeID, ProcessedAt: processedAt}
	if err := s.store.SetProcessed(ctx, f.FeedbackID, upd); err != nil {
		s.metrics.ObserveProcessed("failed", string(res.Label))
		return nil, err
	}

	s.metrics.ObserveProcessed("success", string(res.Label))
	s.logger.Info("feedback processed",
		"feedback_id", f.FeedbackID, "sentiment", res.Label, "rating", f.Rating)

	f.Sentiment = &res.Label
	f.PositiveScore = &res.Scores.Positive
	f.NegativeScore = &res.Scores.Negative
	f.NeutralScore = &res.Scores.Neutral
	f.ThemeID = themeID
	f.IsProcessed = true
	f.ProcessedAt = &processedAt
	return f, nil
}

// assignTheme picks a theme for the feedback. The extractor may fail or be
// absent; the rule-based fallback always yields a name, and a theme row
// failure only costs the theme link, never the classification.
func (s *Service) assignTheme(ctx context.Context, f *Feedback, label sentiment.Label) *uuid.UUID {
	name := FallbackTheme(label, f.Rating)
	if s.themes != nil {
		extracted, err := s.themes.ExtractTheme(ctx, f.Description, label, f.Rating)
		if err != nil {
			s.logger.Warn("theme extraction failed, using fallback", "error", err, "feedback_id", f.FeedbackID)
		} else if extracted != "" {
			name = extracted
		}
	}

	theme, err := s.store.GetOrCreateTheme(ctx, name)
	if err != nil {
		s.logger.Error("theme upsert failed", "error", err, "theme", name)
		return nil
	}
	return &theme.ThemeID
}
