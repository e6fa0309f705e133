// Package textnorm provides text normalization and string similarity scoring
// for keyword matching against free-form chat messages.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// Normalize folds a message into canonical matching form: lowercase, accents
// stripped, everything outside [a-z0-9\s] removed, whitespace collapsed and
// trimmed. Idempotent: Normalize(Normalize(x)) == Normalize(x).
// Examples: "Café, 2024!" → "cafe 2024", "Transferência" → "transferencia"
func Normalize(text string) string {
	// Decompose unicode and drop combining marks (é → e, ç → c)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		// Transform failures only happen on malformed input; fall back to the
		// raw text so matching still degrades to exact-byte comparison.
		folded = text
	}

	folded = strings.ToLower(folded)
	folded = nonAlphanumeric.ReplaceAllString(folded, " ")
	folded = multiSpace.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// LevenshteinDistance computes the classic edit distance between two strings,
// counted in runes so accented input is not penalized per byte.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Single-row dynamic programming; prev[j] is the distance between
	// a[:i] and b[:j] from the previous iteration.
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current := prev[0]
		prev[0] = i
		for j := 1; j <= len(rb); j++ {
			insertion := prev[j-1] + 1
			deletion := prev[j] + 1
			substitution := current
			if ra[i-1] != rb[j-1] {
				substitution++
			}
			current = prev[j]
			prev[j] = min(insertion, deletion, substitution)
		}
	}

	return prev[len(rb)]
}

// Similarity scores two strings in [0,1] as (maxLen - distance) / maxLen.
// Two empty strings are identical by definition and score 1.0.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return float64(maxLen-LevenshteinDistance(a, b)) / float64(maxLen)
}
