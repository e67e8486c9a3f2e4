package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/mnemo/internal/model"
)

// Mention is a single raw entity occurrence in turn text
type Mention struct {
	Name     string
	Kind     model.EntityKind
	Position int // byte offset in the turn text, for deterministic subject binding
}

// Extractor finds entity mentions in free text. Implementations must be
// deterministic and total: malformed text yields zero mentions, never
// an error.
type Extractor interface {
	Mentions(text string) []Mention
}

// RegexExtractor performs pattern-based entity extraction
type RegexExtractor struct {
	patterns map[model.EntityKind][]*regexp.Regexp
	skip     map[string]bool
}

// actor phrases that name conversation participants without being
// proper nouns (common in legal transcripts)
var namedActors = []string{
	"opposing counsel", "expert witness", "the court", "the judge",
	"the mediator", "the realtor", "the attorney", "the landlord", "the tenant",
}

// NewRegexExtractor creates the default pattern-based extractor
func NewRegexExtractor() *RegexExtractor {
	e := &RegexExtractor{
		patterns: make(map[model.EntityKind][]*regexp.Regexp),
		skip: map[string]bool{
			// pronouns and sentence starters that look like names
			"i": true, "you": true, "he": true, "she": true, "they": true, "we": true,
			"it": true, "this": true, "that": true, "these": true, "those": true,
			"the": true, "a": true, "an": true, "my": true, "your": true, "his": true,
			"her": true, "its": true, "our": true, "their": true,
			"yes": true, "no": true, "ok": true, "okay": true, "sure": true,
			"thanks": true, "hello": true, "hi": true, "hey": true,
			"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
			"friday": true, "saturday": true, "sunday": true,
			"january": true, "february": true, "march": true, "april": true,
			"may": true, "june": true, "july": true, "august": true,
			"september": true, "october": true, "november": true, "december": true,
		},
	}

	e.patterns[model.EntityPerson] = compilePatterns([]string{
		`@(\w+)`, // @mention
		`\b((?:Mr|Ms|Mrs|Dr|Judge|Justice)\.?\s+[A-Z][a-z]+)`,
		`(?i)\b(` + strings.Join(namedActors, "|") + `)\b`,
	})

	e.patterns[model.EntityOrganization] = compilePatterns([]string{
		`\b([A-Z][A-Za-z&]+(?:\s+[A-Z][A-Za-z&]+)*\s+(?:Inc|LLC|LLP|Corp|Ltd|Co|Company|Associates|Partners)\.?)\b`,
	})

	e.patterns[model.EntityAgreement] = compilePatterns([]string{
		`(?i)\b(the\s+(?:\w+\s+)?(?:agreement|contract|settlement|stipulation|lease|order|decree|motion))\b`,
		`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Agreement|Contract|Settlement|Stipulation|Order))\b`,
	})

	e.patterns[model.EntityDate] = compilePatterns([]string{
		`\b(\d{4}-\d{2}-\d{2})\b`,
		`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`,
		`(?i)\b((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(?:,?\s+\d{4})?)\b`,
	})

	return e
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	result := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err == nil {
			result = append(result, re)
		}
	}
	return result
}

// kindOrder fixes the scan order so extraction is deterministic
// regardless of map iteration.
var kindOrder = []model.EntityKind{
	model.EntityPerson,
	model.EntityOrganization,
	model.EntityAgreement,
	model.EntityDate,
}

// Mentions implements Extractor
func (e *RegexExtractor) Mentions(text string) []Mention {
	var mentions []Mention

	for _, kind := range kindOrder {
		for _, re := range e.patterns[kind] {
			for _, match := range re.FindAllStringSubmatchIndex(text, -1) {
				if len(match) < 4 || match[2] < 0 {
					continue
				}
				name := text[match[2]:match[3]]
				if e.skip[strings.ToLower(name)] {
					continue
				}
				mentions = append(mentions, Mention{
					Name:     name,
					Kind:     kind,
					Position: match[2],
				})
			}
		}
	}

	mentions = append(mentions, e.capitalizedRuns(text)...)
	return mentions
}

// capitalizedRuns finds mid-sentence runs of capitalized words that no
// pattern claimed, likely proper nouns, classified as topics.
func (e *RegexExtractor) capitalizedRuns(text string) []Mention {
	var mentions []Mention
	words := strings.Fields(text)

	position := 0
	runStart := -1
	var run []string
	flush := func() {
		if len(run) >= 2 {
			name := strings.Join(run, " ")
			if !e.skip[strings.ToLower(name)] {
				mentions = append(mentions, Mention{Name: name, Kind: model.EntityTopic, Position: runStart})
			}
		}
		run = run[:0]
		runStart = -1
	}

	for i, word := range words {
		clean := strings.Trim(word, ".,!?;:'\"()[]{}@#")
		runes := []rune(clean)
		capitalized := len(runes) > 1 && unicode.IsUpper(runes[0]) && unicode.IsLower(runes[1])
		startOfSentence := i == 0 || strings.ContainsAny(words[i-1], ".!?")

		if capitalized && !e.skip[strings.ToLower(clean)] && !(startOfSentence && len(run) == 0) {
			if runStart < 0 {
				runStart = position
			}
			run = append(run, clean)
		} else {
			flush()
		}
		position += len(word) + 1
	}
	flush()

	return mentions
}
