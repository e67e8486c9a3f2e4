package model

import "time"

// PatternKind names a recurring structural motif
type PatternKind string

const (
	// PatternCycle is an affirm claim followed by a contradicting claim
	// on the same subject, repeated (promise-then-violation motif).
	PatternCycle PatternKind = "cycle"
	// PatternInterval is recurring events on one subject whose timestamps
	// cluster around a periodic interval.
	PatternInterval PatternKind = "interval"
)

// Trend describes how a pattern develops over its instances
type Trend string

const (
	TrendEscalating Trend = "escalating"
	TrendStable     Trend = "stable"
	TrendDeclining  Trend = "declining"
)

// Pattern is a detected recurring motif with statistical backing.
// Invariant: InstanceCount == len(InstanceClaimIDs) and InstanceCount >= 2.
// The ordered claim ids make every pattern auditable by a consumer.
type Pattern struct {
	ID               string        `json:"id"`
	Kind             PatternKind   `json:"kind"`
	SubjectID        string        `json:"subject_entity_id"`
	InstanceClaimIDs []string      `json:"instance_claim_ids"`
	InstanceCount    int           `json:"instance_count"`
	MeanInterval     time.Duration `json:"mean_interval"`
	Confidence       float64       `json:"confidence"` // 0-1
	Trend            Trend         `json:"trend"`
	Description      string        `json:"description"`
}
