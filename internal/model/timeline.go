package model

import "time"

// TimelineEvent is a chronological entry derived from one or more claims.
// Read-only once built.
type TimelineEvent struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SubjectID     string    `json:"subject_entity_id"`
	Description   string    `json:"description"`
	Importance    float64   `json:"importance"` // max importance of contributing turns
	SourceClaimID []string  `json:"source_claim_ids"`
}

// Supersession records that a later claim contradicts an earlier claim
// about the same subject. Invariant: the earlier claim's asserted-at is
// strictly before the later claim's.
type Supersession struct {
	ID             string `json:"id"`
	EarlierClaimID string `json:"earlier_claim_id"`
	LaterClaimID   string `json:"later_claim_id"`
	SubjectID      string `json:"subject_entity_id"`
	Reason         string `json:"reason"` // describes the specific conflicting assertions
}
