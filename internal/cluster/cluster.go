// Package cluster groups related articles across sources into story
// clusters and derives a cross-source perspective summary for each.
package cluster

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"prism/internal/feed"
	"prism/internal/logger"
	"prism/internal/metrics"
	"prism/internal/nlp"
)

const (
	maxSharedFacts = 5
	maxContentions = 5
	topicNounCount = 3
)

// Config carries the tunable matching thresholds.
type Config struct {
	EmbeddingThreshold float64       // cosine similarity cut-off
	KeywordThreshold   float64       // keyword-overlap cut-off
	Window             time.Duration // max publish-time gap within a cluster
}

func DefaultConfig() Config {
	return Config{
		EmbeddingThreshold: 0.6,
		KeywordThreshold:   0.4,
		Window:             48 * time.Hour,
	}
}

// PerspectiveBreakdown summarizes how outlets of different leanings
// cover the same story.
type PerspectiveBreakdown struct {
	Excerpts    map[feed.BiasBucket]string `json:"excerpts"`
	SharedFacts []string                   `json:"shared_facts"`
	Contentions []string                   `json:"contentions"`
}

type Cluster struct {
	ID          string               `json:"id"`
	Topic       string               `json:"topic"`
	MemberIDs   []string             `json:"member_ids"`
	FirstSeen   time.Time            `json:"first_seen"`
	LastUpdated time.Time            `json:"last_updated"`
	Perspective PerspectiveBreakdown `json:"perspective"`
}

type Engine struct {
	cfg      Config
	provider nlp.Provider
	metrics  *metrics.Metrics
}

func NewEngine(cfg Config, provider nlp.Provider, m *metrics.Metrics) *Engine {
	if cfg.Window <= 0 {
		cfg.Window = 48 * time.Hour
	}
	return &Engine{cfg: cfg, provider: provider, metrics: m}
}

// member carries per-article state for one clustering pass. Titles drive
// the similarity match; descriptions drive the perspective breakdown.
type member struct {
	article    feed.Article
	titleWords map[string]bool
	descWords  map[string]bool
	vector     []float64 // nil when the embedding capability declined
}

// Cluster groups the articles into story clusters. The result does not
// depend on input order: articles are canonically ordered before the
// greedy scan.
func (e *Engine) Cluster(ctx context.Context, articles []feed.Article) []Cluster {
	if len(articles) < 2 {
		return nil
	}

	members := e.prepare(ctx, articles)

	assigned := make([]bool, len(members))
	var clusters []Cluster

	for i := range members {
		if assigned[i] {
			continue
		}
		group := []int{i}
		assigned[i] = true

		for j := i + 1; j < len(members); j++ {
			if assigned[j] {
				continue
			}
			if e.related(members[i], members[j]) {
				group = append(group, j)
				assigned[j] = true
			}
		}

		if c, ok := e.build(members, group); ok {
			clusters = append(clusters, c)
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].MemberIDs) > len(clusters[j].MemberIDs)
	})

	e.metrics.AddClustersFormed(len(clusters))
	logger.Debug("clustering pass complete", "articles", len(articles), "clusters", len(clusters))
	return clusters
}

// prepare canonically orders the articles and precomputes keywords and
// embeddings. Embedding failures degrade that article to keyword
// matching instead of aborting the pass.
func (e *Engine) prepare(ctx context.Context, articles []feed.Article) []member {
	ordered := make([]feed.Article, len(articles))
	copy(ordered, articles)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Published.Equal(ordered[j].Published) {
			return ordered[i].Published.After(ordered[j].Published)
		}
		return ordered[i].ID < ordered[j].ID
	})

	members := make([]member, len(ordered))
	for i, a := range ordered {
		m := member{
			article:    a,
			titleWords: nlp.KeywordSet(a.Title),
			descWords:  nlp.KeywordSet(a.CleanText),
		}
		vec, err := e.provider.Embed(ctx, a.Title)
		switch {
		case err == nil:
			m.vector = vec
		case errors.Is(err, nlp.ErrUnavailable):
			// keyword fallback
		default:
			logger.Warn("embedding failed", "article", a.ID, "error", err)
		}
		members[i] = m
	}
	return members
}

// related applies the matching rule: same category, published within the
// window, and either semantically similar embeddings or, when a vector
// is missing, sufficient keyword overlap.
func (e *Engine) related(a, b member) bool {
	if !strings.EqualFold(a.article.Category, b.article.Category) {
		return false
	}
	gap := a.article.Published.Sub(b.article.Published)
	if gap < 0 {
		gap = -gap
	}
	if gap >= e.cfg.Window {
		return false
	}

	if a.vector != nil && b.vector != nil {
		return nlp.Cosine(a.vector, b.vector) > e.cfg.EmbeddingThreshold
	}
	return keywordOverlap(a.titleWords, b.titleWords) > e.cfg.KeywordThreshold
}

// keywordOverlap is |A∩B| / max(|A|, |B|, 1).
func keywordOverlap(a, b map[string]bool) float64 {
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom < 1 {
		denom = 1
	}
	return float64(shared) / float64(denom)
}

// build assembles a Cluster from member indices, or reports false when
// the group is too small or single-sourced to be a story.
func (e *Engine) build(members []member, group []int) (Cluster, bool) {
	if len(group) < 2 {
		return Cluster{}, false
	}

	sources := make(map[string]bool)
	for _, idx := range group {
		sources[members[idx].article.Source.ID] = true
	}
	if len(sources) < 2 {
		return Cluster{}, false
	}

	c := Cluster{
		Topic:       topicLabel(members, group),
		FirstSeen:   members[group[0]].article.Published,
		LastUpdated: members[group[0]].article.Published,
	}
	for _, idx := range group {
		a := members[idx].article
		c.MemberIDs = append(c.MemberIDs, a.ID)
		if a.Published.Before(c.FirstSeen) {
			c.FirstSeen = a.Published
		}
		if a.Published.After(c.LastUpdated) {
			c.LastUpdated = a.Published
		}
	}
	c.ID = clusterID(c.MemberIDs)
	c.Perspective = e.perspective(members, group)
	return c, true
}

func clusterID(memberIDs []string) string {
	ids := make([]string, len(memberIDs))
	copy(ids, memberIDs)
	sort.Strings(ids)
	h := sha1.Sum([]byte(strings.Join(ids, ",")))
	return hex.EncodeToString(h[:])[:12]
}

// topicLabel picks the three most frequent capitalized nouns across the
// member titles; when none exist it falls back to the first title.
func topicLabel(members []member, group []int) string {
	counts := make(map[string]int)
	order := make(map[string]int)
	next := 0
	for _, idx := range group {
		for _, noun := range nlp.CapitalizedNouns(members[idx].article.Title) {
			if _, seen := counts[noun]; !seen {
				order[noun] = next
				next++
			}
			counts[noun]++
		}
	}
	if len(counts) == 0 {
		return members[group[0]].article.Title
	}

	nouns := make([]string, 0, len(counts))
	for n := range counts {
		nouns = append(nouns, n)
	}
	sort.SliceStable(nouns, func(i, j int) bool {
		if counts[nouns[i]] != counts[nouns[j]] {
			return counts[nouns[i]] > counts[nouns[j]]
		}
		return order[nouns[i]] < order[nouns[j]]
	})
	if len(nouns) > topicNounCount {
		nouns = nouns[:topicNounCount]
	}
	return strings.Join(nouns, " ")
}

// perspective summarizes coverage by political leaning: the first
// description seen per bucket, the keywords every member shares, and
// the keywords only some members carry.
func (e *Engine) perspective(members []member, group []int) PerspectiveBreakdown {
	p := PerspectiveBreakdown{
		Excerpts: make(map[feed.BiasBucket]string),
	}

	for _, idx := range group {
		a := members[idx].article
		bucket := a.Source.Bias.Bucket()
		if _, taken := p.Excerpts[bucket]; !taken && strings.TrimSpace(a.CleanText) != "" {
			p.Excerpts[bucket] = a.CleanText
		}
	}

	// Union counts per description keyword, preserving first-seen order.
	counts := make(map[string]int)
	var union []string
	for _, idx := range group {
		for _, w := range sortedKeys(members[idx].descWords) {
			if _, seen := counts[w]; !seen {
				union = append(union, w)
			}
			counts[w]++
		}
	}

	for _, w := range union {
		if counts[w] == len(group) {
			if len(p.SharedFacts) < maxSharedFacts {
				p.SharedFacts = append(p.SharedFacts, w)
			}
		} else if counts[w] > 0 {
			if len(p.Contentions) < maxContentions {
				p.Contentions = append(p.Contentions, w)
			}
		}
	}
	return p
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders a compact one-line summary, used in debug logging.
func (c Cluster) String() string {
	return fmt.Sprintf("%s [%d articles] %s", c.ID, len(c.MemberIDs), c.Topic)
}
