package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/dgh-platform/feedback-service/internal/config"
	"github.com/dgh-platform/feedback-service/internal/feedback"
	"github.com/dgh-platform/feedback-service/internal/observability/metrics"
	"github.com/dgh-platform/feedback-service/internal/sentiment"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// BuildFeedbackProcessor assembles the classification pipeline shared by the
// dedicated worker binary and the API server's in-process consumer. The
// returned cleanup releases the theme extractor and must be called on
// shutdown.
func BuildFeedbackProcessor(
	ctx context.Context,
	cfg *appconfig.Config,
	awsCfg aws.Config,
	store *feedback.Store,
	m *metrics.FeedbackMetrics,
	logger *logging.Logger,
) (*feedback.Service, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}

	var classifier sentiment.Classifier = sentiment.NewBedrockClassifier(
		bedrockruntime.NewFromConfig(awsCfg),
		cfg.BedrockModelID,
		cfg.MaxInputChars,
		logger,
	)
	if redisClient := BuildRedisClient(ctx, cfg, logger, true); redisClient != nil {
		classifier = sentiment.NewCachedClassifier(classifier, redisClient, cfg.SentimentTTL, logger)
	}

	serviceCfg := feedback.ServiceConfig{
		Store:      store,
		Classifier: classifier,
		Metrics:    m,
		Logger:     logger,
		Timeout:    cfg.ClassifierTimeout,
	}

	cleanup := func() {}
	if cfg.GeminiAPIKey != "" {
		extractor, err := feedback.NewGeminiThemeExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID, store, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: theme extractor: %w", err)
		}
		serviceCfg.Themes = extractor
		cleanup = func() { _ = extractor.Close() }
	} else {
		logger.Warn("no Gemini API key, theme extraction uses rule-based fallback only")
	}

	return feedback.NewService(serviceCfg), cleanup, nil
}
