package cluster

import (
	"context"
	"math/rand"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"prism/internal/feed"
	"prism/internal/metrics"
	"prism/internal/nlp"
)

// vectorProvider serves canned embeddings per title and declines
// everything else.
type vectorProvider struct {
	vectors map[string][]float64
}

func (p *vectorProvider) Embed(_ context.Context, text string) ([]float64, error) {
	if v, ok := p.vectors[text]; ok {
		return v, nil
	}
	return nil, nlp.ErrUnavailable
}

func (p *vectorProvider) Sentiment(context.Context, string) (float64, error) {
	return 0, nlp.ErrUnavailable
}

func (p *vectorProvider) Entities(context.Context, string) ([]string, error) {
	return nil, nlp.ErrUnavailable
}

func keywordEngine() *Engine {
	return NewEngine(DefaultConfig(), nlp.Disabled{}, metrics.New())
}

func testArticle(id, sourceID, title, category string, published time.Time) feed.Article {
	return feed.Article{
		ID:        id,
		Title:     title,
		Source:    feed.Source{ID: sourceID, Reliability: 0.8},
		Link:      "https://" + sourceID + ".example/" + id,
		Category:  category,
		Published: published,
	}
}

func TestClusterByKeywordOverlap(t *testing.T) {
	now := time.Now()
	articles := []feed.Article{
		testArticle("a", "src-1", "SpaceX launches new rocket from Florida", "world", now.Add(-2*time.Hour)),
		testArticle("b", "src-2", "SpaceX rocket launch succeeds in Florida", "world", now.Add(-1*time.Hour)),
		testArticle("c", "src-3", "Stock market falls today amid selloff", "world", now),
	}

	clusters := keywordEngine().Cluster(context.Background(), articles)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	c := clusters[0]
	if len(c.MemberIDs) != 2 {
		t.Fatalf("cluster members = %v, want the two rocket stories", c.MemberIDs)
	}
	got := append([]string(nil), c.MemberIDs...)
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("members = %v, want [a b]", got)
	}
	if !strings.Contains(c.Topic, "SpaceX") {
		t.Errorf("topic = %q, want the dominant capitalized noun", c.Topic)
	}
	if c.FirstSeen.After(c.LastUpdated) {
		t.Errorf("FirstSeen %v after LastUpdated %v", c.FirstSeen, c.LastUpdated)
	}
}

func TestClusterRequiresTwoDistinctSources(t *testing.T) {
	now := time.Now()
	articles := []feed.Article{
		testArticle("a", "src-1", "SpaceX launches new rocket from Florida", "world", now.Add(-2*time.Hour)),
		testArticle("b", "src-1", "SpaceX rocket launch succeeds in Florida", "world", now.Add(-1*time.Hour)),
	}

	if clusters := keywordEngine().Cluster(context.Background(), articles); len(clusters) != 0 {
		t.Errorf("single-source group formed a cluster: %+v", clusters)
	}
}

func TestClusterRespectsCategoryAndWindow(t *testing.T) {
	now := time.Now()

	// Same story wording, different categories: never clustered.
	crossCategory := []feed.Article{
		testArticle("a", "src-1", "SpaceX launches new rocket from Florida", "world", now),
		testArticle("b", "src-2", "SpaceX rocket launch succeeds in Florida", "science", now),
	}
	if clusters := keywordEngine().Cluster(context.Background(), crossCategory); len(clusters) != 0 {
		t.Errorf("cross-category cluster formed: %+v", clusters)
	}

	// Same story, published three days apart: outside the window.
	stale := []feed.Article{
		testArticle("a", "src-1", "SpaceX launches new rocket from Florida", "world", now),
		testArticle("b", "src-2", "SpaceX rocket launch succeeds in Florida", "world", now.Add(-72*time.Hour)),
	}
	if clusters := keywordEngine().Cluster(context.Background(), stale); len(clusters) != 0 {
		t.Errorf("out-of-window cluster formed: %+v", clusters)
	}
}

func TestClusterUsesEmbeddingsWhenAvailable(t *testing.T) {
	now := time.Now()
	// Titles share no keywords; the embeddings say they are the same story.
	titleA := "Central bank raises interest rates"
	titleB := "Borrowing costs climb after policy decision"
	provider := &vectorProvider{vectors: map[string][]float64{
		titleA: {1, 0.1, 0},
		titleB: {1, 0.09, 0},
	}}
	engine := NewEngine(DefaultConfig(), provider, metrics.New())

	articles := []feed.Article{
		testArticle("a", "src-1", titleA, "business", now.Add(-time.Hour)),
		testArticle("b", "src-2", titleB, "business", now),
	}
	clusters := engine.Cluster(context.Background(), articles)
	if len(clusters) != 1 || len(clusters[0].MemberIDs) != 2 {
		t.Fatalf("semantically similar articles not clustered: %+v", clusters)
	}

	// Dissimilar embeddings keep keyword-similar articles apart: the
	// semantic judgment wins when vectors exist for both sides.
	titleC := "SpaceX launches new rocket from Florida"
	titleD := "SpaceX rocket launch succeeds in Florida"
	provider = &vectorProvider{vectors: map[string][]float64{
		titleC: {1, 0, 0},
		titleD: {0, 1, 0},
	}}
	engine = NewEngine(DefaultConfig(), provider, metrics.New())
	articles = []feed.Article{
		testArticle("c", "src-1", titleC, "world", now.Add(-time.Hour)),
		testArticle("d", "src-2", titleD, "world", now),
	}
	if clusters := engine.Cluster(context.Background(), articles); len(clusters) != 0 {
		t.Errorf("orthogonal embeddings still clustered: %+v", clusters)
	}
}

func TestClusterOrderInvariance(t *testing.T) {
	now := time.Now()
	articles := []feed.Article{
		testArticle("a", "src-1", "SpaceX launches new rocket from Florida", "world", now.Add(-3*time.Hour)),
		testArticle("b", "src-2", "SpaceX rocket launch succeeds in Florida", "world", now.Add(-2*time.Hour)),
		testArticle("c", "src-3", "SpaceX rocket reaches orbit over Florida", "world", now.Add(-1*time.Hour)),
		testArticle("d", "src-1", "Election results certified in three states", "world", now.Add(-2*time.Hour)),
		testArticle("e", "src-2", "Officials certify election results in states", "world", now.Add(-1*time.Hour)),
		testArticle("f", "src-3", "Lone story about a local festival", "world", now),
	}

	engine := keywordEngine()
	baseline := engine.Cluster(context.Background(), articles)
	if len(baseline) == 0 {
		t.Fatal("expected at least one cluster from the fixture")
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]feed.Article(nil), articles...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := engine.Cluster(context.Background(), shuffled)
		if len(got) != len(baseline) {
			t.Fatalf("trial %d: %d clusters, want %d", trial, len(got), len(baseline))
		}
		for i := range got {
			if got[i].ID != baseline[i].ID {
				t.Fatalf("trial %d: cluster order/identity changed: %v vs %v", trial, got[i].ID, baseline[i].ID)
			}
		}
	}
}

func TestClustersSortedByMemberCount(t *testing.T) {
	now := time.Now()
	articles := []feed.Article{
		testArticle("a", "src-1", "SpaceX launches new rocket from Florida", "world", now.Add(-3*time.Hour)),
		testArticle("b", "src-2", "SpaceX rocket launch succeeds in Florida", "world", now.Add(-2*time.Hour)),
		testArticle("c", "src-3", "SpaceX rocket reaches orbit over Florida", "world", now.Add(-1*time.Hour)),
		testArticle("d", "src-1", "Election results certified in three states", "world", now.Add(-2*time.Hour)),
		testArticle("e", "src-2", "Officials certify election results in states", "world", now.Add(-1*time.Hour)),
	}

	clusters := keywordEngine().Cluster(context.Background(), articles)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	if len(clusters[0].MemberIDs) < len(clusters[1].MemberIDs) {
		t.Errorf("clusters not sorted by member count: %d then %d",
			len(clusters[0].MemberIDs), len(clusters[1].MemberIDs))
	}
}

func TestPerspectiveBreakdown(t *testing.T) {
	now := time.Now()
	left := testArticle("a", "left-src", "SpaceX launches new rocket from Florida", "world", now.Add(-time.Hour))
	left.Source.Bias = feed.BiasLeanLeft
	left.CleanText = "The launch drew criticism over public subsidies for the program."

	right := testArticle("b", "right-src", "SpaceX rocket launch succeeds in Florida", "world", now)
	right.Source.Bias = feed.BiasRight
	right.CleanText = "The launch was hailed as a triumph of private enterprise."

	clusters := keywordEngine().Cluster(context.Background(), []feed.Article{left, right})
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	p := clusters[0].Perspective

	if p.Excerpts[feed.BucketLeft] != left.CleanText {
		t.Errorf("left excerpt = %q", p.Excerpts[feed.BucketLeft])
	}
	if p.Excerpts[feed.BucketRight] != right.CleanText {
		t.Errorf("right excerpt = %q", p.Excerpts[feed.BucketRight])
	}
	if len(p.SharedFacts) == 0 || len(p.SharedFacts) > 5 {
		t.Errorf("shared facts = %v, want 1..5 entries", p.SharedFacts)
	}
	for _, w := range p.SharedFacts {
		lw := strings.ToLower(w)
		if !strings.Contains(strings.ToLower(left.Title+" "+left.CleanText), lw) ||
			!strings.Contains(strings.ToLower(right.Title+" "+right.CleanText), lw) {
			t.Errorf("shared fact %q not present in both members", w)
		}
	}
	if len(p.Contentions) > 5 {
		t.Errorf("contentions exceed cap: %v", p.Contentions)
	}
}

func TestClusterTooFewArticles(t *testing.T) {
	engine := keywordEngine()
	if got := engine.Cluster(context.Background(), nil); got != nil {
		t.Errorf("nil input produced clusters: %+v", got)
	}
	one := []feed.Article{testArticle("a", "src-1", "Single story stands alone", "world", time.Now())}
	if got := engine.Cluster(context.Background(), one); got != nil {
		t.Errorf("single article produced clusters: %+v", got)
	}
}
