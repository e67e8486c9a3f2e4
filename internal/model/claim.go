package model

import "time"

// Polarity marks whether a claim asserts or denies its predicate
type Polarity string

const (
	PolarityAffirm Polarity = "affirm"
	PolarityDeny   Polarity = "deny"
)

// Claim is an assertion extracted from a turn about a subject entity.
// A claim is owned by the turn that produced it and references (does
// not own) its subject entity.
type Claim struct {
	ID            string     `json:"id"`
	SubjectID     string     `json:"subject_entity_id"`
	PredicateText string     `json:"predicate_text"`
	AssertedAt    *time.Time `json:"asserted_at,omitempty"` // nil when the source turn had no timestamp
	SourceTurnID  string     `json:"source_turn_id"`
	SourceOrder   int        `json:"source_order"` // turn order, for stable tie-breaking
	Polarity      Polarity   `json:"polarity"`
	Heuristic     string     `json:"heuristic,omitempty"` // which extraction rule matched
}
