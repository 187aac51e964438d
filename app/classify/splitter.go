package classify

import (
	"regexp"
	"strings"
)

var sentenceDelimiter = regexp.MustCompile(`[.!?]`)

// SplitSentences breaks a record body into candidate sentences for
// classification. Fragments of minChars characters or fewer are
// dropped, they carry too little signal for the model.
func SplitSentences(text string, minChars int) []string {
	var sentences []string
	for _, part := range sentenceDelimiter.Split(text, -1) {
		sentence := strings.TrimSpace(part)
		if len(sentence) > minChars {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}
