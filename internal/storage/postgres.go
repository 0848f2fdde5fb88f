package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"prism/internal/feed"
	"prism/internal/logger"
)

// Archive keeps a durable record of fetched articles and pipeline runs
// in PostgreSQL. It is optional; the pipeline runs fine without it.
type Archive struct {
	db *sql.DB
}

func NewArchive(connectionString string) (*Archive, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("article archive connected")
	return a, nil
}

func (a *Archive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id VARCHAR(40) PRIMARY KEY,
		source_id VARCHAR(100) NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		category VARCHAR(50),
		published TIMESTAMP NOT NULL,
		breaking BOOLEAN NOT NULL DEFAULT FALSE,
		importance INTEGER NOT NULL DEFAULT 5,
		quality DOUBLE PRECISION NOT NULL DEFAULT 0,
		archived_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

	CREATE TABLE IF NOT EXISTS runs (
		id SERIAL PRIMARY KEY,
		run_at TIMESTAMP NOT NULL DEFAULT NOW(),
		article_count INTEGER NOT NULL,
		cluster_count INTEGER NOT NULL,
		trend_count INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL
	);
	`

	if _, err := a.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveArticles upserts the articles into the archive.
func (a *Archive) SaveArticles(articles []feed.Article) error {
	query := `
		INSERT INTO articles (id, source_id, title, link, category, published, breaking, importance, quality)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			breaking = EXCLUDED.breaking,
			importance = EXCLUDED.importance,
			quality = EXCLUDED.quality
	`

	for _, art := range articles {
		_, err := a.db.Exec(query,
			art.ID, art.Source.ID, art.Title, art.Link, art.Category,
			art.Published, art.Breaking, art.Importance, art.Quality)
		if err != nil {
			return fmt.Errorf("failed to archive article %s: %w", art.ID, err)
		}
	}
	return nil
}

// RecordRun appends one row describing a completed pipeline run.
func (a *Archive) RecordRun(articleCount, clusterCount, trendCount int, duration time.Duration) error {
	query := `
		INSERT INTO runs (article_count, cluster_count, trend_count, duration_ms)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := a.db.Exec(query, articleCount, clusterCount, trendCount, duration.Milliseconds()); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Cleanup removes archived articles older than the retention window.
func (a *Archive) Cleanup(retention time.Duration) error {
	cutoff := time.Now().Add(-retention)

	result, err := a.db.Exec(`DELETE FROM articles WHERE published < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup archive: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		logger.Info("cleaned up archived articles", "removed", rows)
	}
	return nil
}

// GetStats returns archive row counts.
func (a *Archive) GetStats() (map[string]int, error) {
	stats := make(map[string]int)

	var total int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&total); err != nil {
		return nil, err
	}
	stats["articles"] = total

	var runs int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		return nil, err
	}
	stats["runs"] = runs

	rows, err := a.db.Query(`SELECT category, COUNT(*) FROM articles GROUP BY category`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var category string
			var count int
			if err := rows.Scan(&category, &count); err == nil {
				stats["category_"+category] = count
			}
		}
	}

	return stats, nil
}

func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
