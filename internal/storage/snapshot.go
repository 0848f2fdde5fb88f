// Package storage persists pipeline output between runs: a JSON snapshot
// of the current articles and an optional Postgres archive.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"prism/internal/feed"
)

// Snapshot saves and restores the aggregated article set as a JSON file,
// so a restart does not begin from an empty snapshot.
type Snapshot struct {
	filePath string
}

func NewSnapshot(filePath string) *Snapshot {
	return &Snapshot{filePath: filePath}
}

type snapshotFile struct {
	SavedAt  time.Time      `json:"saved_at"`
	Articles []feed.Article `json:"articles"`
}

// Save writes the articles to the snapshot file.
func (s *Snapshot) Save(articles []feed.Article) error {
	data, err := json.MarshalIndent(snapshotFile{
		SavedAt:  time.Now(),
		Articles: articles,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

// Load reads the snapshot back, dropping articles published before the
// cutoff. A missing or empty file yields no articles and no error.
func (s *Snapshot) Load(maxAge time.Duration) ([]feed.Article, error) {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var sf snapshotFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	if maxAge <= 0 {
		return sf.Articles, nil
	}
	cutoff := time.Now().Add(-maxAge)
	kept := sf.Articles[:0]
	for _, a := range sf.Articles {
		if a.Published.After(cutoff) {
			kept = append(kept, a)
		}
	}
	return kept, nil
}
