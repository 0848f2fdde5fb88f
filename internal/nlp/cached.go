package nlp

import (
	"context"
	"time"

	"prism/internal/cache"
	"prism/internal/metrics"
	"prism/internal/ratelimit"
)

// Cached wraps a Provider with result memoization and a daily request
// budget. When the budget for a capability is exhausted it returns
// ErrUnavailable so callers switch to their heuristic fallbacks instead
// of failing the run.
type Cached struct {
	inner   Provider
	cache   *cache.Cache
	budget  *ratelimit.Budget
	metrics *metrics.Metrics
	ttl     time.Duration
}

func NewCached(inner Provider, budget *ratelimit.Budget, m *metrics.Metrics, ttl time.Duration) *Cached {
	return &Cached{
		inner:   inner,
		cache:   cache.New(),
		budget:  budget,
		metrics: m,
		ttl:     ttl,
	}
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cache.Key("embed", text)
	if v, ok := c.cache.Get(key); ok {
		c.recordHit()
		return v.([]float64), nil
	}
	if !c.budget.Take(ratelimit.CapEmbed) {
		return nil, ErrUnavailable
	}
	c.metrics.IncrementNLPRequests()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec, c.ttl)
	return vec, nil
}

func (c *Cached) Sentiment(ctx context.Context, text string) (float64, error) {
	key := cache.Key("sentiment", text)
	if v, ok := c.cache.Get(key); ok {
		c.recordHit()
		return v.(float64), nil
	}
	if !c.budget.Take(ratelimit.CapSentiment) {
		return 0, ErrUnavailable
	}
	c.metrics.IncrementNLPRequests()

	score, err := c.inner.Sentiment(ctx, text)
	if err != nil {
		return 0, err
	}
	c.cache.Set(key, score, c.ttl)
	return score, nil
}

func (c *Cached) Entities(ctx context.Context, text string) ([]string, error) {
	key := cache.Key("entities", text)
	if v, ok := c.cache.Get(key); ok {
		c.recordHit()
		return v.([]string), nil
	}
	if !c.budget.Take(ratelimit.CapEntity) {
		return nil, ErrUnavailable
	}
	c.metrics.IncrementNLPRequests()

	entities, err := c.inner.Entities(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, entities, c.ttl)
	return entities, nil
}

func (c *Cached) recordHit() {
	c.budget.RecordHit()
	c.metrics.IncrementNLPCacheHits()
}
