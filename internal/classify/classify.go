// Package classify holds the heuristic content classifier: advertising /
// promotional detection and a quality score. All functions are pure and
// total; they never touch I/O.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"prism/internal/feed"
)

// Advertising terms matched against lowercased title+description.
var adKeywords = []string{
	"sponsored",
	"advertisement",
	"advertorial",
	"promoted",
	"promo code",
	"coupon",
	"giveaway",
	"sweepstakes",
	"% off",
	"free shipping",
	"affiliate",
}

// PR / deal-announcement phrases.
var prPhrases = []string{
	"press release",
	"deal alert",
	"deals of the day",
	"best deals",
	"limited time offer",
	"limited-time offer",
	"shop now",
	"buy now",
	"order now",
	"prices slashed",
	"announces partnership",
	"proud to announce",
	"now available for purchase",
	"exclusive offer",
}

// Source identifiers carrying these substrings are wire-service or
// press-release channels.
var wireSourceMarkers = []string{
	"prnewswire",
	"businesswire",
	"globenewswire",
	"accesswire",
	"newsfile",
	"sponsored",
}

// Brand names that co-occur with deal words in promotional headlines.
var dealBrands = []string{
	"comcast", "xfinity", "verizon", "at&t", "t-mobile", "sprint",
	"spectrum", "dish", "directv",
	"amazon", "walmart", "target", "best buy", "costco",
	"apple", "samsung", "roku",
}

var dealWords = []string{
	"deal", "offer", "plan", "package", "price", "discount", "save", "bundle", "promotion",
}

var clickbaitPhrases = []string{
	"you won't believe",
	"you wont believe",
	"what happens next",
	"will shock you",
	"will blow your mind",
	"this one trick",
	"one weird trick",
	"doctors hate",
	"the real reason",
	"here's why",
	"heres why",
	"you need to know",
	"can't stop watching",
	"gone wrong",
	"number 7",
	"top 10 reasons",
}

// containsAny matches phrases by substring and short single tokens by
// whole word, so "ad" does not fire inside "road".
func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		if strings.Contains(k, " ") || len(k) > 3 {
			if strings.Contains(text, k) {
				return true
			}
			continue
		}

		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsAdvertisement reports whether the article is promotional content.
// Any single rule firing is sufficient; no field is authoritative alone.
func IsAdvertisement(a feed.Article) bool {
	text := strings.ToLower(a.Title + " " + a.CleanText)
	title := strings.ToLower(a.Title)

	if containsAny(text, adKeywords) {
		return true
	}
	if containsAny(text, prPhrases) {
		return true
	}
	if containsAny(strings.ToLower(a.Source.ID), wireSourceMarkers) {
		return true
	}
	if brandDealTitle(title) {
		return true
	}
	return IsClickbait(a.Title)
}

// brandDealTitle fires on a brand name co-occurring with a deal-related
// word in the title.
func brandDealTitle(title string) bool {
	for _, brand := range dealBrands {
		if !strings.Contains(title, brand) {
			continue
		}
		if containsAny(title, dealWords) {
			return true
		}
	}
	return false
}

// IsClickbait applies the title-only heuristics: known phrases, repeated
// punctuation, or shouting (more than two all-caps words).
func IsClickbait(title string) bool {
	lower := strings.ToLower(title)
	if containsAny(lower, clickbaitPhrases) {
		return true
	}
	if strings.Count(title, "!") > 1 || strings.Count(title, "?") > 1 {
		return true
	}
	return countShoutingWords(title) > 2
}

// countShoutingWords counts words longer than 3 characters that are fully
// uppercase and start with a letter.
func countShoutingWords(title string) int {
	count := 0
	for _, word := range strings.Fields(title) {
		runes := []rune(word)
		if len(runes) <= 3 || !unicode.IsLetter(runes[0]) {
			continue
		}
		upper := true
		for _, r := range runes {
			if unicode.IsLetter(r) && !unicode.IsUpper(r) {
				upper = false
				break
			}
		}
		if upper {
			count++
		}
	}
	return count
}

var questionWords = []string{"who", "what", "when", "where", "why", "how"}

// QualityScore rates article completeness and credibility in [0,1].
// Independent of the advertising filter.
func QualityScore(a feed.Article) float64 {
	score := 1.0

	if len(a.Title) < 20 {
		score -= 0.2
	}
	if strings.TrimSpace(a.CleanText) == "" {
		score -= 0.1
	}
	score += a.Source.Reliability * 0.3

	if strings.Contains(a.Title, "!") {
		score -= 0.1
	}
	if strings.Contains(a.Title, "?") && !containsAny(strings.ToLower(a.Title), questionWords) {
		score -= 0.1
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
