package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds process settings. Source definitions live separately in
// the sources YAML file.
type Config struct {
	// Feed settings
	SourcesConfigPath string
	FetchTimeout      time.Duration // total budget for one FetchAll pass
	FetchRatePerSec   float64       // politeness limit across sources
	RetryAttempts     int
	RetryDelay        time.Duration

	// NLP settings
	GeminiAPIKey      string
	MaxEmbedCalls     int // per-day budget, 0 = unlimited
	MaxEntityCalls    int
	MaxSentimentCalls int
	MaxNLPCalls       int
	NLPCacheTTL       time.Duration

	// Clustering
	EmbeddingThreshold float64 // cosine similarity cut-off
	KeywordThreshold   float64 // keyword-overlap cut-off
	ClusterWindow      time.Duration

	// Trending
	TrendInterval time.Duration

	// Persistence
	SnapshotPath string
	ArchiveDSN   string // optional Postgres archive, empty = disabled

	// App settings
	Debug       bool
	RunInterval time.Duration // 0 = run once and exit
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		SourcesConfigPath:  "configs/sources.yaml",
		FetchTimeout:       30 * time.Second,
		FetchRatePerSec:    8,
		RetryAttempts:      2,
		RetryDelay:         2 * time.Second,
		MaxEmbedCalls:      500,
		MaxEntityCalls:     500,
		MaxSentimentCalls:  500,
		MaxNLPCalls:        1200,
		NLPCacheTTL:        12 * time.Hour,
		EmbeddingThreshold: 0.6,
		KeywordThreshold:   0.4,
		ClusterWindow:      48 * time.Hour,
		TrendInterval:      5 * time.Minute,
		SnapshotPath:       "articles_snapshot.json",
	}

	// Load from environment
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	if v := os.Getenv("SOURCES_CONFIG_PATH"); v != "" {
		cfg.SourcesConfigPath = v
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
	cfg.ArchiveDSN = os.Getenv("ARCHIVE_DSN")

	cfg.FetchTimeout = getEnvDurationOrDefault("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)
	cfg.NLPCacheTTL = getEnvDurationOrDefault("NLP_CACHE_TTL", cfg.NLPCacheTTL)
	cfg.ClusterWindow = getEnvDurationOrDefault("CLUSTER_WINDOW", cfg.ClusterWindow)
	cfg.TrendInterval = getEnvDurationOrDefault("TREND_INTERVAL", cfg.TrendInterval)
	cfg.RunInterval = getEnvDurationOrDefault("RUN_INTERVAL", 0)

	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.MaxEmbedCalls = getEnvIntOrDefault("MAX_EMBED_CALLS", cfg.MaxEmbedCalls)
	cfg.MaxEntityCalls = getEnvIntOrDefault("MAX_ENTITY_CALLS", cfg.MaxEntityCalls)
	cfg.MaxSentimentCalls = getEnvIntOrDefault("MAX_SENTIMENT_CALLS", cfg.MaxSentimentCalls)
	cfg.MaxNLPCalls = getEnvIntOrDefault("MAX_NLP_CALLS", cfg.MaxNLPCalls)

	cfg.FetchRatePerSec = getEnvFloatOrDefault("FETCH_RATE_PER_SEC", cfg.FetchRatePerSec)
	cfg.EmbeddingThreshold = getEnvFloatOrDefault("EMBEDDING_THRESHOLD", cfg.EmbeddingThreshold)
	cfg.KeywordThreshold = getEnvFloatOrDefault("KEYWORD_THRESHOLD", cfg.KeywordThreshold)

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.SourcesConfigPath == "" {
		return fmt.Errorf("SOURCES_CONFIG_PATH is required")
	}
	if c.EmbeddingThreshold <= 0 || c.EmbeddingThreshold >= 1 {
		return fmt.Errorf("EMBEDDING_THRESHOLD must be in (0,1)")
	}
	if c.KeywordThreshold <= 0 || c.KeywordThreshold >= 1 {
		return fmt.Errorf("KEYWORD_THRESHOLD must be in (0,1)")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	return nil
}
