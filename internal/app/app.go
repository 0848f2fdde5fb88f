// Package app wires the pipeline together: configuration, sources,
// fetch, classification, clustering, and trend extraction, plus the
// persistence and scheduling around them.
package app

import (
	"context"
	"fmt"
	"time"

	"prism/internal/aggregate"
	"prism/internal/cluster"
	"prism/internal/config"
	"prism/internal/feed"
	"prism/internal/logger"
	"prism/internal/metrics"
	"prism/internal/nlp"
	"prism/internal/ratelimit"
	"prism/internal/retry"
	"prism/internal/storage"
	"prism/internal/trend"
)

// Result is the output of one pipeline run.
type Result struct {
	FetchedAt time.Time             `json:"fetched_at"`
	Duration  time.Duration         `json:"duration"`
	Articles  []feed.Article        `json:"articles"`
	Clusters  []cluster.Cluster     `json:"clusters"`
	Trends    []trend.TrendingTopic `json:"trends"`
}

type App struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	aggregator *aggregate.Aggregator
	clusterer  *cluster.Engine
	trends     *trend.Extractor
	snapshot   *storage.Snapshot
	archive    *storage.Archive
	gemini     *nlp.Gemini
	results    chan Result
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Init()
	m := metrics.New()

	sources, err := feed.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	logger.Info("sources loaded", "count", len(sources), "path", cfg.SourcesConfigPath)

	a := &App{
		cfg:     cfg,
		metrics: m,
		results: make(chan Result, 1),
	}

	var base nlp.Provider = nlp.Disabled{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := nlp.NewGemini(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("init nlp provider: %w", err)
		}
		a.gemini = gemini
		base = gemini
	} else {
		logger.Warn("no NLP API key configured, using heuristic fallbacks only")
	}

	budget := ratelimit.NewBudget(cfg.MaxEmbedCalls, cfg.MaxEntityCalls, cfg.MaxSentimentCalls, cfg.MaxNLPCalls)
	provider := nlp.NewCached(base, budget, m, cfg.NLPCacheTTL)

	client := feed.NewClient(cfg.FetchRatePerSec)
	a.aggregator = aggregate.New(client, feed.NewParser(), sources, cfg.FetchTimeout,
		retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}, m)

	a.clusterer = cluster.NewEngine(cluster.Config{
		EmbeddingThreshold: cfg.EmbeddingThreshold,
		KeywordThreshold:   cfg.KeywordThreshold,
		Window:             cfg.ClusterWindow,
	}, provider, m)

	a.trends = trend.NewExtractor(cfg.TrendInterval, provider, m)

	a.snapshot = storage.NewSnapshot(cfg.SnapshotPath)
	if restored, err := a.snapshot.Load(cfg.ClusterWindow); err != nil {
		logger.Warn("snapshot restore failed", "error", err)
	} else if len(restored) > 0 {
		a.aggregator.SetArticles(restored)
		logger.Info("snapshot restored", "articles", len(restored))
	}

	if cfg.ArchiveDSN != "" {
		archive, err := storage.NewArchive(cfg.ArchiveDSN)
		if err != nil {
			// The archive is a nice-to-have; a broken DSN should not
			// stop the pipeline.
			logger.Warn("archive unavailable", "error", err)
		} else {
			a.archive = archive
		}
	}

	return a, nil
}

// Results delivers each completed run to interested consumers. Slow
// consumers miss intermediate results rather than blocking the pipeline.
func (a *App) Results() <-chan Result {
	return a.results
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *App) Aggregator() *aggregate.Aggregator {
	return a.aggregator
}

// RunOnce executes one full pipeline pass.
func (a *App) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()

	articles, err := a.aggregator.FetchAll(ctx)
	if err != nil {
		a.metrics.SetError(err.Error())
		return Result{}, err
	}

	clusters := a.clusterer.Cluster(ctx, articles)
	trending := a.trends.Trending(ctx, articles)

	if err := a.snapshot.Save(articles); err != nil {
		logger.Warn("snapshot save failed", "error", err)
	}
	if a.archive != nil {
		if err := a.archive.SaveArticles(articles); err != nil {
			logger.Warn("archive save failed", "error", err)
		}
		if err := a.archive.RecordRun(len(articles), len(clusters), len(trending), time.Since(start)); err != nil {
			logger.Warn("archive run record failed", "error", err)
		}
	}

	duration := time.Since(start)
	a.metrics.RecordRunDuration(duration)
	a.metrics.SetLastRun()

	res := Result{
		FetchedAt: start,
		Duration:  duration,
		Articles:  articles,
		Clusters:  clusters,
		Trends:    trending,
	}
	a.publish(res)

	logger.Info("pipeline run complete",
		"articles", len(articles),
		"clusters", len(clusters),
		"trends", len(trending),
		"duration", duration)

	return res, nil
}

// publish replaces any unconsumed result with the latest one.
func (a *App) publish(res Result) {
	for {
		select {
		case a.results <- res:
			return
		default:
		}
		select {
		case <-a.results:
		default:
		}
	}
}

// Run executes an immediate pass and then, when a run interval is
// configured, keeps running on that interval until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.RunOnce(ctx); err != nil {
		logger.Error("pipeline run failed", "error", err)
		if a.cfg.RunInterval <= 0 {
			return err
		}
	}

	if a.cfg.RunInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(a.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := a.RunOnce(ctx); err != nil {
				logger.Error("pipeline run failed", "error", err)
			}
		}
	}
}

func (a *App) Close() {
	if a.gemini != nil {
		a.gemini.Close()
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			logger.Warn("archive close failed", "error", err)
		}
	}
}
