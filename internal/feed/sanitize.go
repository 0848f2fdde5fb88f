package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripTags removes markup tags with a character scan. Feed descriptions
// are frequently truncated mid-tag, so a scan is safer than a DOM parser
// here.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// entityReplacer unescapes the fixed set of HTML entities that show up in
// feed text. Anything else is left alone.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// CleanText strips markup tags, unescapes the known entities, and
// collapses whitespace.
func CleanText(s string) string {
	s = stripTags(s)
	s = entityReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// pickImage returns the first usable image address. Candidates from
// media/enclosure elements win; otherwise the first <img src> found inside
// the description is used; otherwise there is no image.
func pickImage(candidates []string, description string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return imageFromHTML(description)
}

func imageFromHTML(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return src
}
