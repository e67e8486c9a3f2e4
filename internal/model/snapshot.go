package model

import "time"

// QuickFacts summarizes the raw material behind a snapshot
type QuickFacts struct {
	Title       string     `json:"title,omitempty"`
	TurnCount   int        `json:"turn_count"`
	EntityCount int        `json:"entity_count"`
	ClaimCount  int        `json:"claim_count"`
	TopEntities []string   `json:"top_entities,omitempty"` // by mention count
	FirstSeen   *time.Time `json:"first_seen,omitempty"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
}

// Snapshot is the compressed, verifiable memory of a conversation.
// Built once per pipeline run; never mutated. Partial results are
// always preferable to none, so degraded inputs land in Warnings
// rather than failing the run.
type Snapshot struct {
	ThreadID       string          `json:"thread_id,omitempty"`
	QuickFacts     QuickFacts      `json:"quick_facts"`
	Timeline       []TimelineEvent `json:"timeline_entries"`
	Patterns       []Pattern       `json:"patterns"`
	Contradictions []Supersession  `json:"contradictions"`
	CodeBlocks     []CodeBlock     `json:"code_blocks,omitempty"`
	TokenEstimate  int             `json:"token_estimate"`
	Warnings       []string        `json:"warnings,omitempty"`
}
