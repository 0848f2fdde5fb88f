// Package ratelimit tracks daily request budgets for the external NLP
// capabilities. Each capability has its own cap plus a shared total cap;
// counters reset every 24 hours.
package ratelimit

import (
	"sync"
	"time"

	"prism/internal/logger"
)

// Capability names the budgeted NLP operations.
type Capability string

const (
	CapEmbed     Capability = "embed"
	CapEntity    Capability = "entity"
	CapSentiment Capability = "sentiment"
)

// Budget enforces per-capability and total daily caps. A cap of 0 means
// unlimited.
type Budget struct {
	mu        sync.Mutex
	used      map[Capability]int
	limits    map[Capability]int
	total     int
	maxTotal  int
	hits      int
	misses    int
	resetTime time.Time
}

func NewBudget(maxEmbed, maxEntity, maxSentiment, maxTotal int) *Budget {
	return &Budget{
		used: make(map[Capability]int),
		limits: map[Capability]int{
			CapEmbed:     maxEmbed,
			CapEntity:    maxEntity,
			CapSentiment: maxSentiment,
		},
		maxTotal:  maxTotal,
		resetTime: time.Now().Add(24 * time.Hour),
	}
}

// Take reserves one request for the capability. It returns false when the
// capability or total cap is exhausted for the current day.
func (b *Budget) Take(c Capability) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if limit := b.limits[c]; limit > 0 && b.used[c] >= limit {
		logger.Warn("NLP budget exhausted", "capability", string(c), "used", b.used[c], "limit", limit)
		return false
	}
	if b.maxTotal > 0 && b.total >= b.maxTotal {
		logger.Warn("total NLP budget exhausted", "used", b.total, "limit", b.maxTotal)
		return false
	}

	b.used[c]++
	b.total++
	b.misses++
	return true
}

// RecordHit counts a cache hit, which costs no budget.
func (b *Budget) RecordHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits++
}

// HitRate returns the cache hit percentage since the last reset.
func (b *Budget) HitRate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hitRateLocked()
}

func (b *Budget) hitRateLocked() float64 {
	total := b.hits + b.misses
	if total == 0 {
		return 0
	}
	return float64(b.hits) / float64(total) * 100
}

// GetStats returns a snapshot of budget usage.
func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"embed_used":      b.used[CapEmbed],
		"embed_limit":     b.limits[CapEmbed],
		"entity_used":     b.used[CapEntity],
		"entity_limit":    b.limits[CapEntity],
		"sentiment_used":  b.used[CapSentiment],
		"sentiment_limit": b.limits[CapSentiment],
		"total_used":      b.total,
		"total_limit":     b.maxTotal,
		"cache_hits":      b.hits,
		"cache_misses":    b.misses,
		"cache_hit_rate":  b.hitRateLocked(),
		"reset_time":      b.resetTime,
	}
}

func (b *Budget) checkReset() {
	if time.Now().After(b.resetTime) {
		logger.Info("resetting NLP budget counters",
			"total_used", b.total, "cache_hit_rate", b.hitRateLocked())
		b.used = make(map[Capability]int)
		b.total = 0
		b.hits = 0
		b.misses = 0
		b.resetTime = time.Now().Add(24 * time.Hour)
	}
}
