package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// CachedClassifier memoizes classification results in Redis. Caching is sound
// because classification is deterministic for fixed model weights; the TTL
// exists only to bound memory and roll over model upgrades.
type CachedClassifier struct {
	inner  Classifier
	client redis.UniversalClient
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedClassifier wraps inner with a Redis cache. A nil client disables
// caching and passes every call through.
func NewCachedClassifier(inner Classifier, client redis.UniversalClient, ttl time.Duration, logger *logging.Logger) *CachedClassifier {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedClassifier{inner: inner, client: client, ttl: ttl, logger: logger}
}

var _ Classifier = (*CachedClassifier)(nil)

func (c *CachedClassifier) Classify(ctx context.Context, text string) (Result, error) {
	if c.client == nil {
		return c.inner.Classify(ctx, text)
	}

	key := cacheKey(text)
	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var res Result
		if err := json.Unmarshal(cached, &res); err == nil && res.Label.Valid() {
			return res, nil
		}
		// Corrupt entry: fall through and overwrite.
	} else if err != redis.Nil {
		c.logger.Warn("sentiment cache read failed", "error", err)
	}

	res, err := c.inner.Classify(ctx, text)
	if err != nil {
		return Result{}, err
	}

	if payload, err := json.Marshal(res); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("sentiment cache write failed", "error", err)
		}
	}
	return res, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sentiment:" + hex.EncodeToString(sum[:])
}
