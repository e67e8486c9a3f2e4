package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Refine rewrites a snapshot brief for readability in strict
	// grounding mode: the output may rephrase but never add facts.
	Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// RefineRequest contains the input for LLM refinement
type RefineRequest struct {
	// Brief is the deterministically rendered snapshot brief. It is
	// the ONLY source material the model may draw on.
	Brief string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// RefineResponse contains the LLM's refined output
type RefineResponse struct {
	// Text is the refined brief
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictGrounding rejects output that introduces URLs or numbers
	// absent from the brief (should always be true)
	StrictGrounding bool

	// MaxTokens for response generation
	MaxTokens int

	// RequestsPerMinute caps the request rate
	RequestsPerMinute int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:          "", // Disabled by default
		Model:             "",
		Timeout:           30,
		StrictGrounding:   true,
		MaxTokens:         512,
		RequestsPerMinute: 20,
	}
}

// BuildPrompt constructs the default refinement prompt with strict grounding rules
func BuildPrompt(brief string) string {
	return fmt.Sprintf(`You are polishing a machine-generated memory brief of a conversation. The brief below is the complete and only source of truth.

CRITICAL RULES:
1. Rephrase for clarity and flow. DO NOT add facts, names, dates, numbers, or URLs that are not in the brief.
2. DO NOT remove contradictions or pattern findings. They are the point of the brief.
3. Keep every date and number exactly as written.
4. If a section is empty, say so plainly. Never invent content to fill it.

Brief:
%s

Rewrite the brief as clean prose, same order of sections, no preamble.`, brief)
}

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s)]+`)
	numberPattern = regexp.MustCompile(`\$?\d[\d,./:-]*`)
)

// verifyGrounding reports facts in the refined text that are missing
// from the brief. Mirrors how citations are checked against an
// allowlist: anything verifiable in the output must trace back to the
// input.
func verifyGrounding(brief, refined string) error {
	for _, url := range dedupe(urlPattern.FindAllString(refined, -1)) {
		url = strings.TrimRight(url, ".,;:!?")
		if !strings.Contains(brief, url) {
			return fmt.Errorf("grounding leak: refined text cites unknown URL %s", url)
		}
	}
	for _, num := range dedupe(numberPattern.FindAllString(refined, -1)) {
		num = strings.TrimRight(num, ".,;:!?")
		if !strings.Contains(brief, num) {
			return fmt.Errorf("grounding leak: refined text introduces value %q", num)
		}
	}
	return nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var unique []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			unique = append(unique, item)
		}
	}
	return unique
}
