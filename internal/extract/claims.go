package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/mnemo/internal/model"
)

// ClaimExtractor recognizes assertion sentences and their polarity.
// Extraction is deterministic and total over its input.
type ClaimExtractor struct {
	keywords  []string
	pastTense *regexp.Regexp
	negation  *regexp.Regexp
}

// NewClaimExtractor creates a claim extractor with the default cues
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		keywords: []string{
			"agreed", "promised", "will", "shall", "must", "is required",
			"delivered", "received", "paid", "signed", "filed", "sent",
			"complied", "refused", "denied", "confirmed", "violated",
			"breached", "according to", "is defined as", "decided",
		},
		// generic past-tense cue; catches assertions the keyword list misses
		pastTense: regexp.MustCompile(`\b[a-z]{2,}ed\b`),
		negation:  regexp.MustCompile(`(?i)\b(not|never|no longer|didn'?t|did not|doesn'?t|does not|wasn'?t|was not|isn'?t|is not|refused to|denied|failed to)\b`),
	}
}

// candidate is an assertion sentence before subject binding
type candidate struct {
	Sentence  string
	Heuristic string
	Polarity  model.Polarity
}

// Candidates returns the assertion sentences in text. A sentence
// qualifies when it carries an assertion cue and is not a question;
// polarity is deny when a negation marker is present.
func (e *ClaimExtractor) Candidates(text string) []candidate {
	var out []candidate
	for _, sentence := range splitSentences(text) {
		if strings.HasSuffix(sentence, "?") {
			continue
		}
		lower := strings.ToLower(sentence)

		heuristic := ""
		for _, kw := range e.keywords {
			if strings.Contains(lower, kw) {
				heuristic = "keyword:" + kw
				break
			}
		}
		if heuristic == "" && e.pastTense.MatchString(lower) {
			heuristic = "past-tense"
		}
		if heuristic == "" {
			continue
		}

		polarity := model.PolarityAffirm
		if e.negation.MatchString(sentence) {
			polarity = model.PolarityDeny
		}

		out = append(out, candidate{
			Sentence:  strings.TrimSpace(sentence),
			Heuristic: heuristic,
			Polarity:  polarity,
		})
	}
	return out
}

// abbreviations whose trailing period does not end a sentence; mirrors
// the honorifics and org suffixes the entity patterns recognize
var abbreviations = map[string]bool{
	"mr": true, "ms": true, "mrs": true, "dr": true, "judge": true, "justice": true,
	"inc": true, "llc": true, "llp": true, "corp": true, "ltd": true, "co": true,
	"vs": true, "etc": true,
}

// splitSentences splits chat text into sentences. Newlines terminate
// sentences too; chat turns rarely punctuate line ends.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		if len(strings.Fields(s)) >= 2 && len(s) <= 500 {
			sentences = append(sentences, s)
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// avoid splitting on abbreviations mid-token
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t' {
				if r == '.' && endsInAbbreviation(current.String()) {
					continue
				}
				flush()
			}
		}
	}
	flush()

	return sentences
}

// endsInAbbreviation reports whether the text ends in a known
// abbreviation such as "Mr." or "Corp."
func endsInAbbreviation(s string) bool {
	s = strings.TrimSuffix(s, ".")
	if i := strings.LastIndexAny(s, " \t"); i >= 0 {
		s = s[i+1:]
	}
	return abbreviations[strings.ToLower(s)]
}
