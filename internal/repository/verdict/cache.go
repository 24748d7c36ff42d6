// Package verdict caches classification results keyed by file digest,
// so repeated submissions of the same binary skip parsing and scoring.
package verdict

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/osprey-sec/malscan/internal/db"
	"github.com/osprey-sec/malscan/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "verdict:"

// store is the consumer interface for the verdict cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedScorer caches score results in a key-value store.
type CachedScorer struct {
	inner      domain.Scorer
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Scorer,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedScorer {
	return &CachedScorer{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Score returns a cached result or calls the inner scorer.
// Cache errors degrade to a miss; scoring never fails because the store is down.
func (c *CachedScorer) Score(ctx context.Context, data []byte) (domain.ScoreResult, error) {
	key := c.cacheKey(data)

	if res, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return res, nil
	}

	c.incCache("miss")

	result, err := c.inner.Score(ctx, data)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	c.putToCache(ctx, key, result)
	return result, nil
}

func (c *CachedScorer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedScorer) cacheKey(data []byte) string {
	h := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedScorer) getFromCache(ctx context.Context, key string) (domain.ScoreResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached verdict", zap.String("key", key), zap.Error(err))
		}
		return domain.ScoreResult{}, false
	}

	var res domain.ScoreResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("Failed to parse cached verdict", zap.String("key", key), zap.Error(err))
		return domain.ScoreResult{}, false
	}

	return res, true
}

func (c *CachedScorer) putToCache(ctx context.Context, key string, res domain.ScoreResult) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Failed to encode verdict", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache verdict", zap.String("key", key), zap.Error(err))
	}
}
