package classify

import (
	"math"
	"testing"

	"prism/internal/feed"
)

func article(title, desc string, reliability float64) feed.Article {
	return feed.Article{
		Title:     title,
		CleanText: desc,
		Source: feed.Source{
			ID:          "test-src",
			Reliability: reliability,
		},
	}
}

func TestIsAdvertisement(t *testing.T) {
	cases := []struct {
		name string
		a    feed.Article
		want bool
	}{
		{"plain news", article("Parliament passes budget after long debate", "The vote concluded late on Tuesday.", 0.8), false},
		{"sponsored keyword", article("Sponsored: the gadgets we loved this year", "A roundup.", 0.8), true},
		{"percent off", article("50% OFF everything this weekend", "", 0.8), true},
		{"pr phrase", article("Press release: company announces merger", "", 0.8), true},
		{"deal alert with brand and punctuation", article("50% OFF — Comcast Deal Alert!!", "", 0.8), true},
		{"brand plus deal word", article("Comcast unveils new bundle for streaming", "", 0.8), true},
		{"brand without deal word", article("Comcast faces regulatory scrutiny over outage", "", 0.8), false},
		{"wire source id", feed.Article{Title: "Company launches product line", Source: feed.Source{ID: "prnewswire-tech"}}, true},
		{"clickbait phrase", article("You won't believe what happened at the summit", "", 0.8), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAdvertisement(tc.a); got != tc.want {
				t.Errorf("IsAdvertisement = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdDetectionIsMonotonic(t *testing.T) {
	// Appending an ad marker to any text must never turn an ad back into
	// non-ad content.
	bases := []string{
		"Parliament passes budget after long debate",
		"Storm warning issued for the coast",
		"Quarterly results beat expectations",
	}
	for _, base := range bases {
		a := article(base, "", 0.8)
		if IsAdvertisement(a) {
			continue
		}
		a.CleanText = a.CleanText + " sponsored"
		if !IsAdvertisement(a) {
			t.Errorf("%q + sponsored marker not flagged", base)
		}
	}
}

func TestIsClickbait(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Minister resigns over budget dispute", false},
		{"You won't believe what happens next", true},
		{"Incredible!! Amazing!!", true},
		{"Really? Are you sure? Again?", true},
		{"THIS HUGE STORY BREAKS EVERYTHING today", true}, // >2 shouting words
		{"NASA confirms ISS resupply schedule", false},    // acronyms alone are fine
		{"What time is the eclipse?", false},              // single question mark
	}
	for _, tc := range cases {
		if got := IsClickbait(tc.title); got != tc.want {
			t.Errorf("IsClickbait(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}

func TestQualityScore(t *testing.T) {
	const eps = 1e-9

	// Short title, no description, reliable source:
	// 1.0 - 0.2 - 0.1 + 0.9*0.3 = 0.97
	got := QualityScore(article("Short title", "", 0.9))
	if math.Abs(got-0.97) > eps {
		t.Errorf("score = %v, want 0.97", got)
	}

	// Full-length title with description from a reliable source clamps at 1.
	got = QualityScore(article("A perfectly reasonable headline length", "Body text present.", 1.0))
	if got != 1.0 {
		t.Errorf("score = %v, want clamp to 1.0", got)
	}

	// Exclamation and non-question "?" both penalize. Reliability 0 keeps
	// the scores below the clamp so the comparison is visible.
	base := QualityScore(article("A perfectly reasonable headline length", "Body.", 0))
	excl := QualityScore(article("A perfectly reasonable headline!", "Body.", 0))
	if excl >= base {
		t.Errorf("exclamation not penalized: %v >= %v", excl, base)
	}

	// "?" with a question word is not penalized.
	why := QualityScore(article("Why did the markets fall today?", "Body.", 0))
	bare := QualityScore(article("The markets fell again today?", "Body.", 0))
	if bare >= why {
		t.Errorf("rhetorical question not penalized: %v >= %v", bare, why)
	}

	// Never below zero.
	if got := QualityScore(article("Eh?!", "", 0)); got < 0 {
		t.Errorf("score %v below zero", got)
	}
}
