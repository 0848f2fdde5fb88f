package feed

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"prism/internal/logger"
)

// Parser turns one raw feed payload into normalized articles. It is pure:
// no I/O, no shared state, and it never fails on a malformed item — bad
// items are dropped and the rest of the feed is still processed.
type Parser struct {
	strict *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{strict: gofeed.NewParser()}
}

// rawItem is one feed entry before normalization, produced by either
// payload strategy.
type rawItem struct {
	title       string
	link        string
	description string
	dateText    string
	date        time.Time // set when the strict parser already resolved it
	images      []string  // candidates in priority order
}

// parseStrategies is the ordered list of whole-payload strategies. The
// strict gofeed pass runs first; when it rejects the payload the tolerant
// scanner takes over so malformed markup still yields the readable items.
var parseStrategies = []struct {
	name string
	fn   func(p *Parser, payload string) ([]rawItem, bool)
}{
	{"strict", (*Parser).parseStrict},
	{"loose", (*Parser).parseLoose},
}

// Parse extracts zero or more articles from a raw feed payload. A payload
// that is not decodable as text yields an empty result, never an error.
func (p *Parser) Parse(payload []byte, src Source, fetchedAt time.Time) []Article {
	if len(payload) == 0 || !utf8.Valid(payload) {
		return nil
	}
	text := string(payload)

	var raw []rawItem
	for _, strat := range parseStrategies {
		items, ok := strat.fn(p, text)
		if ok {
			raw = items
			if strat.name != "strict" {
				logger.Debug("feed parsed with fallback strategy", "source", src.ID, "strategy", strat.name)
			}
			break
		}
	}

	articles := make([]Article, 0, len(raw))
	for _, it := range raw {
		a, ok := normalizeItem(it, src, fetchedAt)
		if !ok {
			continue // malformed item, rest of feed still processed
		}
		articles = append(articles, a)
	}
	return articles
}

// parseStrict delegates to gofeed for well-formed RSS/Atom payloads.
func (p *Parser) parseStrict(payload string) ([]rawItem, bool) {
	f, err := p.strict.ParseString(payload)
	if err != nil || f == nil {
		return nil, false
	}
	items := make([]rawItem, 0, len(f.Items))
	for _, it := range f.Items {
		if it == nil {
			continue
		}
		r := rawItem{
			title:       it.Title,
			link:        it.Link,
			description: it.Description,
			dateText:    it.Published,
		}
		if r.description == "" {
			r.description = it.Content
		}
		if it.PublishedParsed != nil {
			r.date = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			r.date = *it.UpdatedParsed
		}
		// Image candidates: media extension, then enclosure. The
		// <img> inside the description is tried later during
		// normalization, shared with the loose path.
		for _, ext := range it.Extensions["media"]["content"] {
			if u := ext.Attrs["url"]; u != "" {
				r.images = append(r.images, u)
			}
		}
		if it.Image != nil && it.Image.URL != "" {
			r.images = append(r.images, it.Image.URL)
		}
		for _, enc := range it.Enclosures {
			if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image") {
				r.images = append(r.images, enc.URL)
			}
		}
		items = append(items, r)
	}
	return items, true
}

var (
	itemBlockRe  = regexp.MustCompile(`(?si)<item[\s>].*?</item>`)
	entryBlockRe = regexp.MustCompile(`(?si)<entry[\s>].*?</entry>`)

	linkHrefRe     = regexp.MustCompile(`(?si)<link[^>]*href="([^"]+)"`)
	mediaContentRe = regexp.MustCompile(`(?si)<media:content[^>]*url="([^"]+)"`)
	mediaThumbRe   = regexp.MustCompile(`(?si)<media:thumbnail[^>]*url="([^"]+)"`)
	enclosureRe    = regexp.MustCompile(`(?si)<enclosure[^>]*url="([^"]+)"`)
)

// tagPatterns holds the per-tag extraction regexes. The CDATA-wrapped form
// is always preferred over the plain form.
type tagPatterns struct {
	cdata *regexp.Regexp
	plain *regexp.Regexp
}

func newTagPatterns(tag string) tagPatterns {
	return tagPatterns{
		cdata: regexp.MustCompile(`(?si)<` + tag + `[^>]*>\s*<!\[CDATA\[(.*?)\]\]>\s*</` + tag + `>`),
		plain: regexp.MustCompile(`(?si)<` + tag + `[^>]*>(.*?)</` + tag + `>`),
	}
}

var (
	titleTag   = newTagPatterns("title")
	linkTag    = newTagPatterns("link")
	descTag    = newTagPatterns("description")
	summaryTag = newTagPatterns("summary")
	pubDateTag = newTagPatterns("pubDate")
	dcDateTag  = newTagPatterns("dc:date")
	pubTag     = newTagPatterns("published")
	updatedTag = newTagPatterns("updated")
)

func (tp tagPatterns) extract(block string) string {
	if m := tp.cdata.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := tp.plain.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstOf(block string, tags ...tagPatterns) string {
	for _, tp := range tags {
		if v := tp.extract(block); v != "" {
			return v
		}
	}
	return ""
}

// parseLoose scans for <item>/<entry> blocks with tolerant per-field
// regexes. It never rejects the payload; a payload with no recognizable
// blocks just produces no items.
func (p *Parser) parseLoose(payload string) ([]rawItem, bool) {
	blocks := itemBlockRe.FindAllString(payload, -1)
	blocks = append(blocks, entryBlockRe.FindAllString(payload, -1)...)

	items := make([]rawItem, 0, len(blocks))
	for _, block := range blocks {
		r := rawItem{
			title:       titleTag.extract(block),
			description: firstOf(block, descTag, summaryTag),
			dateText:    firstOf(block, pubDateTag, dcDateTag, pubTag, updatedTag),
		}
		r.link = linkTag.extract(block)
		if r.link == "" {
			if m := linkHrefRe.FindStringSubmatch(block); m != nil {
				r.link = strings.TrimSpace(m[1])
			}
		}
		for _, re := range []*regexp.Regexp{mediaContentRe, mediaThumbRe, enclosureRe} {
			if m := re.FindStringSubmatch(block); m != nil {
				r.images = append(r.images, strings.TrimSpace(m[1]))
			}
		}
		items = append(items, r)
	}
	return items, true
}

// dateLayouts is the ordered list of publish-date formats tried in
// sequence. When none match the fetch time is substituted; a bad date is
// never a parse failure.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
}

func parseDate(text string, fallback time.Time) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}
	return fallback
}

// breakingMarkers flag a title as breaking news and raise its importance.
var breakingMarkers = []string{"breaking", "just in", "developing"}

func isBreakingTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range breakingMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func validLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// normalizeItem applies the shared per-item rules: required fields, date
// fallback, description cleanup, image fallback chain, breaking heuristic.
func normalizeItem(it rawItem, src Source, fetchedAt time.Time) (Article, bool) {
	title := CleanText(it.title)
	if title == "" || !validLink(it.link) {
		return Article{}, false
	}

	published := it.date
	if published.IsZero() {
		published = parseDate(it.dateText, fetchedAt)
	}

	a := Article{
		ID:          makeArticleID(src.ID, it.link),
		Title:       title,
		Source:      src,
		Link:        strings.TrimSpace(it.link),
		Published:   published,
		Category:    src.Category,
		Description: it.description,
		CleanText:   CleanText(it.description),
		ImageURL:    pickImage(it.images, it.description),
		Importance:  ImportanceDefault,
	}
	if isBreakingTitle(title) {
		a.Breaking = true
		a.Importance = ImportanceBreaking
	}
	return a, true
}
