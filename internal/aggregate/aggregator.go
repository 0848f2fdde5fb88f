// Package aggregate fans out over the configured sources, filters and
// scores what they return, and maintains the merged in-memory snapshot
// the rest of the pipeline reads from.
package aggregate

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"prism/internal/classify"
	"prism/internal/feed"
	"prism/internal/logger"
	"prism/internal/metrics"
	"prism/internal/retry"
)

// ErrNoData is returned when every source failed or produced nothing.
// Partial failure is not an error; only an empty union is.
var ErrNoData = errors.New("no articles available from any source")

// Fetcher downloads one raw feed payload.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Aggregator struct {
	fetcher Fetcher
	parser  *feed.Parser
	sources []feed.Source
	timeout time.Duration
	retry   retry.Config
	metrics *metrics.Metrics

	mu       sync.RWMutex
	articles []feed.Article
}

func New(fetcher Fetcher, parser *feed.Parser, sources []feed.Source, timeout time.Duration, retryCfg retry.Config, m *metrics.Metrics) *Aggregator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Aggregator{
		fetcher: fetcher,
		parser:  parser,
		sources: sources,
		timeout: timeout,
		retry:   retryCfg,
		metrics: m,
	}
}

type sourceResult struct {
	source   feed.Source
	articles []feed.Article
	err      error
}

// FetchAll polls every configured source concurrently and replaces the
// snapshot with the merged result. A failing source never poisons the
// others; its articles are simply absent from this round.
func (ag *Aggregator) FetchAll(ctx context.Context) ([]feed.Article, error) {
	merged, err := ag.fetchSources(ctx, ag.sources)
	if err != nil {
		return nil, err
	}

	sortArticles(merged)

	ag.mu.Lock()
	ag.articles = merged
	ag.mu.Unlock()

	return copyArticles(merged), nil
}

// FetchCategory refreshes only the sources of one category. Articles of
// that category in the snapshot are replaced; other categories keep
// their current contents.
func (ag *Aggregator) FetchCategory(ctx context.Context, category string) ([]feed.Article, error) {
	var subset []feed.Source
	for _, src := range ag.sources {
		if strings.EqualFold(src.Category, category) {
			subset = append(subset, src)
		}
	}
	if len(subset) == 0 {
		return nil, ErrNoData
	}

	fresh, err := ag.fetchSources(ctx, subset)
	if err != nil {
		return nil, err
	}

	ag.mu.Lock()
	kept := ag.articles[:0:0]
	for _, a := range ag.articles {
		if !strings.EqualFold(a.Category, category) {
			kept = append(kept, a)
		}
	}
	kept = append(kept, fresh...)
	sortArticles(kept)
	ag.articles = kept
	ag.mu.Unlock()

	sortArticles(fresh)
	return fresh, nil
}

func (ag *Aggregator) fetchSources(ctx context.Context, sources []feed.Source) ([]feed.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, ag.timeout)
	defer cancel()

	results := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)
		go func(src feed.Source) {
			defer wg.Done()
			articles, err := ag.fetchOne(ctx, src)
			results <- sourceResult{source: src, articles: articles, err: err}
		}(src)
	}

	wg.Wait()
	close(results)

	var merged []feed.Article
	failed := 0
	for res := range results {
		if res.err != nil {
			failed++
			ag.metrics.AddSourcesFailed(1)
			logger.Warn("source fetch failed", "source", res.source.ID, "error", res.err)
			continue
		}
		ag.metrics.AddSourcesFetched(1)
		merged = append(merged, res.articles...)
	}

	logger.Info("fetch round complete",
		"sources", len(sources), "failed", failed, "articles", len(merged))

	if len(merged) == 0 {
		return nil, ErrNoData
	}
	return merged, nil
}

func (ag *Aggregator) fetchOne(ctx context.Context, src feed.Source) ([]feed.Article, error) {
	var payload []byte
	err := retry.Do(ctx, ag.retry, func() error {
		var ferr error
		payload, ferr = ag.fetcher.Fetch(ctx, src.URL)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	parsed := ag.parser.Parse(payload, src, time.Now())
	ag.metrics.AddItemsParsed(len(parsed))

	kept := parsed[:0]
	for _, a := range parsed {
		if classify.IsAdvertisement(a) {
			ag.metrics.AddAdsFiltered(1)
			continue
		}
		a.Quality = classify.QualityScore(a)
		kept = append(kept, a)
	}
	return kept, nil
}

// sortArticles orders breaking news first, newest first within each
// group. The sort is stable so equal articles keep their merge order.
func sortArticles(articles []feed.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Breaking != articles[j].Breaking {
			return articles[i].Breaking
		}
		return articles[i].Published.After(articles[j].Published)
	})
}

func copyArticles(src []feed.Article) []feed.Article {
	out := make([]feed.Article, len(src))
	copy(out, src)
	return out
}

// Articles returns a copy of the full snapshot in display order.
func (ag *Aggregator) Articles() []feed.Article {
	ag.mu.RLock()
	defer ag.mu.RUnlock()
	return copyArticles(ag.articles)
}

// SetArticles replaces the snapshot, used when restoring persisted state.
func (ag *Aggregator) SetArticles(articles []feed.Article) {
	sorted := copyArticles(articles)
	sortArticles(sorted)

	ag.mu.Lock()
	ag.articles = sorted
	ag.mu.Unlock()
}

// ByCategory returns the snapshot articles of one category.
func (ag *Aggregator) ByCategory(category string) []feed.Article {
	ag.mu.RLock()
	defer ag.mu.RUnlock()

	var out []feed.Article
	for _, a := range ag.articles {
		if strings.EqualFold(a.Category, category) {
			out = append(out, a)
		}
	}
	return out
}

// Breaking returns the snapshot articles flagged as breaking news.
func (ag *Aggregator) Breaking() []feed.Article {
	ag.mu.RLock()
	defer ag.mu.RUnlock()

	var out []feed.Article
	for _, a := range ag.articles {
		if a.Breaking {
			out = append(out, a)
		}
	}
	return out
}

// TopN returns the first n articles in display order.
func (ag *Aggregator) TopN(n int) []feed.Article {
	ag.mu.RLock()
	defer ag.mu.RUnlock()

	if n > len(ag.articles) {
		n = len(ag.articles)
	}
	if n <= 0 {
		return nil
	}
	return copyArticles(ag.articles[:n])
}

// Recent returns the snapshot articles published within the window.
func (ag *Aggregator) Recent(window time.Duration) []feed.Article {
	cutoff := time.Now().Add(-window)

	ag.mu.RLock()
	defer ag.mu.RUnlock()

	var out []feed.Article
	for _, a := range ag.articles {
		if a.Published.After(cutoff) {
			out = append(out, a)
		}
	}
	return out
}
