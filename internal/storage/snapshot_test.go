package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"prism/internal/feed"
)

func snapArticle(id string, published time.Time) feed.Article {
	return feed.Article{
		ID:        id,
		Title:     "Headline for " + id,
		Source:    feed.Source{ID: "src-1"},
		Link:      "https://example.com/" + id,
		Category:  "world",
		Published: published,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	s := NewSnapshot(path)

	now := time.Now().Truncate(time.Second)
	saved := []feed.Article{
		snapArticle("a", now.Add(-time.Hour)),
		snapArticle("b", now.Add(-2*time.Hour)),
	}
	if err := s.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d articles, want 2", len(loaded))
	}
	if loaded[0].ID != "a" || loaded[0].Title != saved[0].Title {
		t.Errorf("article round trip mangled: %+v", loaded[0])
	}
	if !loaded[0].Published.Equal(saved[0].Published) {
		t.Errorf("published = %v, want %v", loaded[0].Published, saved[0].Published)
	}
}

func TestSnapshotLoadDropsStaleArticles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	s := NewSnapshot(path)

	now := time.Now()
	if err := s.Save([]feed.Article{
		snapArticle("fresh", now.Add(-time.Hour)),
		snapArticle("stale", now.Add(-100*time.Hour)),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(48 * time.Hour)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "fresh" {
		t.Errorf("stale filtering failed: %+v", loaded)
	}
}

func TestSnapshotLoadMissingFile(t *testing.T) {
	s := NewSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	loaded, err := s.Load(time.Hour)
	if err != nil || loaded != nil {
		t.Errorf("missing file should load as empty, got %v / %v", loaded, err)
	}
}

func TestSnapshotLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSnapshot(path).Load(time.Hour); err == nil {
		t.Error("corrupt snapshot should error, got nil")
	}
}
