package model

// CodeBlock is a fenced code block preserved from a turn, together
// with the text that introduced it. Code is kept verbatim; compression
// never rewrites it.
type CodeBlock struct {
	Language  string `json:"language"`
	Content   string `json:"content"`
	Context   string `json:"context,omitempty"`
	TurnOrder int    `json:"turn_order"`
}
