// Package trend surfaces the topics currently spiking across sources.
package trend

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"prism/internal/feed"
	"prism/internal/logger"
	"prism/internal/metrics"
	"prism/internal/nlp"
)

const maxTopics = 10

type TrendingTopic struct {
	Label        string    `json:"label"`
	Count        int       `json:"count"`
	SourceCount  int       `json:"source_count"`
	AvgSentiment float64   `json:"avg_sentiment"`
	FirstSeen    time.Time `json:"first_seen"`
}

// Extractor computes trending topics at most once per interval; calls
// inside the window return the previous result unchanged.
type Extractor struct {
	interval time.Duration
	provider nlp.Provider
	metrics  *metrics.Metrics

	mu      sync.Mutex
	lastRun time.Time
	cached  []TrendingTopic
}

func NewExtractor(interval time.Duration, provider nlp.Provider, m *metrics.Metrics) *Extractor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Extractor{interval: interval, provider: provider, metrics: m}
}

// Trending returns the current trending topics, recomputing only when
// the gating interval has elapsed since the previous computation.
func (e *Extractor) Trending(ctx context.Context, articles []feed.Article) []TrendingTopic {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lastRun.IsZero() && time.Since(e.lastRun) < e.interval {
		return copyTopics(e.cached)
	}

	e.cached = e.extract(ctx, articles)
	e.lastRun = time.Now()
	e.metrics.IncrementTrendRuns()
	return copyTopics(e.cached)
}

type topicStats struct {
	label     string
	count     int
	sources   map[string]bool
	sentSum   float64
	sentCount int
	firstSeen time.Time
}

// extract tallies topic mentions across titles. A topic trends only when
// it is mentioned at least twice by at least two distinct sources.
func (e *Extractor) extract(ctx context.Context, articles []feed.Article) []TrendingTopic {
	stats := make(map[string]*topicStats)
	var order []string

	for _, a := range articles {
		topics := e.articleTopics(ctx, a)
		if len(topics) == 0 {
			continue
		}

		sentiment, haveSentiment := e.articleSentiment(ctx, a)

		seen := make(map[string]bool)
		for _, topic := range topics {
			key := strings.ToLower(topic)
			if seen[key] {
				continue
			}
			seen[key] = true

			st, ok := stats[key]
			if !ok {
				st = &topicStats{
					label:     topic,
					sources:   make(map[string]bool),
					firstSeen: a.Published,
				}
				stats[key] = st
				order = append(order, key)
			}
			st.count++
			st.sources[a.Source.ID] = true
			if a.Published.Before(st.firstSeen) {
				st.firstSeen = a.Published
			}
			if haveSentiment {
				st.sentSum += sentiment
				st.sentCount++
			}
		}
	}

	var topics []TrendingTopic
	for _, key := range order {
		st := stats[key]
		if st.count < 2 || len(st.sources) < 2 {
			continue
		}
		t := TrendingTopic{
			Label:       st.label,
			Count:       st.count,
			SourceCount: len(st.sources),
			FirstSeen:   st.firstSeen,
		}
		if st.sentCount > 0 {
			t.AvgSentiment = st.sentSum / float64(st.sentCount)
		}
		topics = append(topics, t)
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Count > topics[j].Count
	})
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}

	logger.Debug("trend extraction complete", "articles", len(articles), "topics", len(topics))
	return topics
}

// articleTopics asks the entity extractor first and falls back to the
// capitalized-noun heuristic when it declines.
func (e *Extractor) articleTopics(ctx context.Context, a feed.Article) []string {
	entities, err := e.provider.Entities(ctx, a.Title)
	if err == nil && len(entities) > 0 {
		return entities
	}
	if err != nil && !errors.Is(err, nlp.ErrUnavailable) {
		logger.Warn("entity extraction failed", "article", a.ID, "error", err)
	}
	return nlp.CapitalizedNouns(a.Title)
}

func (e *Extractor) articleSentiment(ctx context.Context, a feed.Article) (float64, bool) {
	score, err := e.provider.Sentiment(ctx, a.Title)
	if err != nil {
		return 0, false
	}
	return score, true
}

func copyTopics(src []TrendingTopic) []TrendingTopic {
	out := make([]TrendingTopic, len(src))
	copy(out, src)
	return out
}
