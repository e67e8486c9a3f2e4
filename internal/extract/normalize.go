package extract

import (
	"strings"
	"unicode"
)

// Normalizer maps a surface form to its identity key. Two surface
// forms merge into one entity when their keys are identical. The
// interface exists so a fuzzy matcher can replace the default without
// changing callers.
type Normalizer interface {
	Normalize(text string) string
}

// DefaultNormalizer folds case, collapses whitespace and trims
// punctuation. No fuzzy matching.
type DefaultNormalizer struct{}

// Normalize implements Normalizer
func (DefaultNormalizer) Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.Join(strings.Fields(text), " ")
}
