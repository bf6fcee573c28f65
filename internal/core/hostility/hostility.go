// Package hostility scores a single chat message for hostile markers.
//
// The score is a deterministic heuristic in [0,1] built from four additive
// signals: hostile keyword substrings, the share of uppercase letters,
// runs of !/? punctuation and repeated shouted words. No I/O, safe for
// concurrent use.
package hostility

import (
	"regexp"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Signal weights and thresholds
const (
	KeywordWeight = 0.4
	KeywordCap    = 0.8

	ShoutRatioThreshold = 0.2
	ShoutRatioWeight    = 0.3

	PunctuationWeight = 0.2

	ShoutWordsMin    = 2
	ShoutWordsWeight = 0.2
)

var (
	kw          = newMatcher(table)
	punctRun    = regexp.MustCompile(`[!?]{3,}`)
	shoutedWord = regexp.MustCompile(`[A-Z]{5,}`)
)

// Breakdown is the per-signal decomposition of a score
type Breakdown struct {
	Matched     []string `json:"matched,omitempty"`
	Keywords    float64  `json:"keywords"`
	ShoutRatio  float64  `json:"shout_ratio"`
	Shout       float64  `json:"shout"`
	Punctuation float64  `json:"punctuation"`
	ShoutWords  float64  `json:"shout_words"`
	Total       float64  `json:"total"`
}

// Score returns the hostility score of content in [0,1]
func Score(content string) float64 {
	return Explain(content).Total
}

// Explain scores content and reports each contribution
func Explain(content string) Breakdown {
	var b Breakdown
	if content == "" {
		return b
	}

	lower := cases.Lower(language.Und).String(content)
	for id, ok := range kw.present([]byte(lower)) {
		if ok {
			b.Matched = append(b.Matched, table[id])
		}
	}
	b.Keywords = min(float64(len(b.Matched))*KeywordWeight, KeywordCap)

	b.ShoutRatio = upperRatio(content)
	if b.ShoutRatio > ShoutRatioThreshold {
		b.Shout = ShoutRatioWeight
	}

	if punctRun.MatchString(content) {
		b.Punctuation = PunctuationWeight
	}

	if len(shoutedWord.FindAllStringIndex(content, ShoutWordsMin)) >= ShoutWordsMin {
		b.ShoutWords = ShoutWordsWeight
	}

	b.Total = min(b.Keywords+b.Shout+b.Punctuation+b.ShoutWords, 1.0)
	return b
}

// upperRatio is uppercase letters over all letters, 0 when there are none
func upperRatio(s string) float64 {
	var letters, upper int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}
