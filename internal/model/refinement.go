package model

// Refinement is an optional LLM-polished rendering of a snapshot
// brief. It is presentation only: the snapshot it was generated from
// is never modified, and every verifiable fact in the refined text
// must already exist in the brief.
type Refinement struct {
	Enabled    bool     `json:"enabled"`
	Provider   string   `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
	Text       string   `json:"text,omitempty"`
	TokensUsed int      `json:"tokens_used,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}
