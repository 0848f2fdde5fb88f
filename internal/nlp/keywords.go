package nlp

import (
	"strings"
	"unicode"
)

// stopWords are excluded from keyword and topic extraction.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "but": true, "for": true,
	"with": true, "from": true, "into": true, "over": true, "after": true,
	"before": true, "about": true, "amid": true, "this": true, "that": true,
	"these": true, "those": true, "will": true, "would": true, "could": true,
	"should": true, "says": true, "said": true, "have": true, "has": true,
	"been": true, "were": true, "was": true, "are": true, "new": true,
	"news": true, "more": true, "most": true, "than": true, "just": true,
	"how": true, "why": true, "what": true, "when": true, "where": true,
	"who": true, "its": true, "his": true, "her": true, "their": true,
	"your": true, "they": true, "you": true, "not": true, "out": true,
	"report": true, "reports": true, "update": true, "live": true,
	"breaking": true, "developing": true,
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// SignificantWords extracts the lowercased content words of a text:
// tokens longer than 3 characters that are not stop words. This is the
// heuristic stand-in for part-of-speech filtering when the external NLP
// subsystem is unavailable.
func SignificantWords(text string) []string {
	var words []string
	seen := make(map[string]bool)
	for _, tok := range tokenize(text) {
		w := strings.ToLower(strings.Trim(tok, "'"))
		if len([]rune(w)) <= 3 || stopWords[w] {
			continue
		}
		if !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	return words
}

// KeywordSet is SignificantWords as a set.
func KeywordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range SignificantWords(text) {
		set[w] = true
	}
	return set
}

// CapitalizedNouns extracts words that start with an uppercase letter,
// are longer than 3 characters, and are not stop words or sentence-only
// capitalizations worth ignoring. Tokens keep their original casing.
func CapitalizedNouns(text string) []string {
	var nouns []string
	for _, tok := range tokenize(text) {
		runes := []rune(tok)
		if len(runes) <= 3 || !unicode.IsUpper(runes[0]) {
			continue
		}
		if stopWords[strings.ToLower(tok)] {
			continue
		}
		nouns = append(nouns, tok)
	}
	return nouns
}
