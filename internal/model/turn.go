package model

import "time"

// Role identifies the speaker of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleUnknown   Role = "unknown"
)

// Turn is a single timestamped message in a conversation.
// Turns are immutable once created; the parser owns their construction.
type Turn struct {
	ID        string     `json:"id"`
	Order     int        `json:"order"`               // 1-based position in the transcript
	Timestamp *time.Time `json:"timestamp,omitempty"` // nil when the transcript carries no date
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
}

// SignalTag names a scoring signal that fired on a turn
type SignalTag string

const (
	SignalDecision SignalTag = "decision"
	SignalAction   SignalTag = "action"
	SignalQuestion SignalTag = "question"
	SignalEntity   SignalTag = "entity"
	SignalQuote    SignalTag = "quote"
	SignalSystem   SignalTag = "system"
)

// ScoredTurn is the importance assessment of one turn.
// Recomputed deterministically from the turn plus its extracted
// entities/claims; never mutated after creation.
type ScoredTurn struct {
	TurnID     string      `json:"turn_id"`
	Importance float64     `json:"importance"` // 0-10
	Signals    []SignalTag `json:"signals"`    // contributing signals, sorted
}
