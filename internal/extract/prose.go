package extract

import (
	"github.com/tsawler/prose/v3"

	"github.com/ppiankov/mnemo/internal/model"
)

// ProseExtractor performs NER-based entity extraction using the prose
// library. Interchangeable with RegexExtractor behind the Extractor
// interface; slower but catches names no pattern anticipates.
type ProseExtractor struct{}

// NewProseExtractor creates a prose-backed extractor
func NewProseExtractor() *ProseExtractor {
	return &ProseExtractor{}
}

// proseKind maps prose NER labels onto entity kinds. Labels with no
// counterpart in the data model are folded into topics.
func proseKind(label string) model.EntityKind {
	switch label {
	case "PERSON":
		return model.EntityPerson
	case "ORG", "NORP", "FAC":
		return model.EntityOrganization
	case "LAW":
		return model.EntityAgreement
	case "DATE", "TIME":
		return model.EntityDate
	default:
		return model.EntityTopic
	}
}

// Mentions implements Extractor
func (e *ProseExtractor) Mentions(text string) []Mention {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil
	}

	var mentions []Mention
	for _, ent := range doc.Entities() {
		mentions = append(mentions, Mention{
			Name:     ent.Text,
			Kind:     proseKind(ent.Label),
			Position: ent.Start,
		})
	}
	return mentions
}
