package timeline

import (
	"regexp"
	"strings"
)

// PredicateComparator decides whether two predicates cover the same
// subject-matter. Pluggable so the matching strategy can be swapped
// and tested in isolation.
type PredicateComparator interface {
	Similar(a, b string) bool
}

// TokenOverlapComparator compares predicates by the overlap coefficient
// of their content tokens: |A ∩ B| / min(|A|, |B|). Stopwords, negation
// markers and value tokens are excluded so "delivered the order" and
// "never received the order" still land on the same subject-matter.
type TokenOverlapComparator struct {
	Threshold float64
}

// NewTokenOverlapComparator creates the default comparator
func NewTokenOverlapComparator(threshold float64) *TokenOverlapComparator {
	return &TokenOverlapComparator{Threshold: threshold}
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "were": true, "be": true, "been": true, "has": true, "have": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"that": true, "this": true, "it": true, "he": true, "she": true, "they": true,
	// negation markers are polarity, not subject-matter
	"not": true, "never": true, "no": true,
}

var valueToken = regexp.MustCompile(`^\$?[\d][\d,./:-]*$`)

// Similar implements PredicateComparator
func (c *TokenOverlapComparator) Similar(a, b string) bool {
	ta := contentTokens(a)
	tb := contentTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}

	overlap := 0
	for token := range ta {
		if tb[token] {
			overlap++
		}
	}
	smaller := len(ta)
	if len(tb) < smaller {
		smaller = len(tb)
	}
	return float64(overlap)/float64(smaller) >= c.Threshold
}

func contentTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(field, ".,!?;:'\"()[]{}")
		if len(token) < 2 || stopwords[token] || valueToken.MatchString(token) {
			continue
		}
		tokens[token] = true
	}
	return tokens
}

// valueTokens returns the date/number tokens of a predicate, used to
// spot same-polarity conflicts like a moved deadline.
func valueTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(field, ".,!?;:'\"()[]{}")
		if token != "" && valueToken.MatchString(token) {
			tokens[token] = true
		}
	}
	return tokens
}

func valuesDiffer(a, b string) bool {
	va := valueTokens(a)
	vb := valueTokens(b)
	if len(va) == 0 || len(vb) == 0 {
		return false
	}
	for token := range va {
		if vb[token] {
			return false // any shared value token means no clean conflict
		}
	}
	return true
}
