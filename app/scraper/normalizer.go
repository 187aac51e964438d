package scraper

import (
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var (
	tagPattern = regexp.MustCompile(`<[^<]+?>`)
	urlPattern = regexp.MustCompile(`http\S+|www\.\S+`)
)

// nonASCII drops every rune outside the 7-bit range
var nonASCII = runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
}))

// Normalize strips HTML-like tags, URLs and non-ASCII characters from
// raw text. Tags are replaced with a single space so word boundaries
// survive. Pure function, always returns a string.
func Normalize(text string) string {
	text = tagPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, "")
	text, _, _ = transform.String(nonASCII, text)
	return text
}
