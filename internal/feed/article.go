package feed

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// Default and breaking-news importance levels.
const (
	ImportanceDefault  = 5
	ImportanceBreaking = 9
)

// Article is one normalized feed entry. Created once by the parser and
// never mutated after it enters the aggregate store; pipeline re-runs
// replace articles wholesale instead of patching them in place.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Source      Source    `json:"source"`
	Link        string    `json:"link"`
	Published   time.Time `json:"published"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CleanText   string    `json:"clean_text"`
	ImageURL    string    `json:"image_url,omitempty"`
	Breaking    bool      `json:"breaking"`
	Importance  int       `json:"importance"`
	Quality     float64   `json:"quality"`
}

// makeArticleID generates a stable identifier from source and canonical link.
func makeArticleID(sourceID, link string) string {
	h := sha1.New()
	h.Write([]byte(sourceID + "|" + strings.TrimSpace(link)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
