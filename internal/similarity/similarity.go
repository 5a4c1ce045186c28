// Package similarity implements the text similarity metric used by the
// change detector to decide whether a submission continues the previously
// saved prompt or starts a new one.
//
// The metric is the Sørensen–Dice coefficient over lowercase word tokens:
// 2·|A∩B| / (|A|+|B|), computed on token multisets. It is symmetric,
// yields 1.0 for identical texts and 0.0 for texts with disjoint
// vocabularies, which is exactly the contract the detector needs. Word
// tokens (rather than character n-grams) make the score robust against
// the small edits an autosaving text box produces: adding one adjective
// to a six-word prompt keeps the score above any sane threshold, while
// a rewritten prompt shares almost no vocabulary and drops near zero.
package similarity

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the recommended continuation threshold. Scores at
// or above it classify a submission as an edit of the saver's last
// prompt; below it, a new record is created. Tunable via configuration.
const DefaultThreshold = 0.7

// Score returns the Dice similarity of two texts in [0, 1].
func Score(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)

	// Two empty texts are identical; one empty text shares nothing.
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	counts := make(map[string]int, len(ta))
	for _, tok := range ta {
		counts[tok]++
	}

	overlap := 0
	for _, tok := range tb {
		if counts[tok] > 0 {
			counts[tok]--
			overlap++
		}
	}

	return 2.0 * float64(overlap) / float64(len(ta)+len(tb))
}

// IsContinuation reports whether text should be treated as an edit of
// previous, given the configured threshold.
func IsContinuation(previous, text string, threshold float64) bool {
	return Score(previous, text) >= threshold
}

// tokenize splits text into lowercase word tokens. Punctuation separates
// tokens so "cat," and "cat" compare equal.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
