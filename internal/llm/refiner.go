package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/mnemo/internal/model"
)

// Refiner wraps a Provider with rate limiting and graceful
// degradation. Refinement failures never fail a digest run: the
// deterministic brief already exists and the refined text is an
// optional extra.
type Refiner struct {
	provider Provider
	limiter  *rate.Limiter
	config   Config
}

// NewRefiner creates a refiner from configuration. An empty provider
// name yields a disabled refiner, not an error.
func NewRefiner(config Config) (*Refiner, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}

	return &Refiner{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (r *Refiner) IsEnabled() bool {
	return r.provider != nil
}

// ProviderName returns the configured provider's name, empty when disabled
func (r *Refiner) ProviderName() string {
	if r.provider == nil {
		return ""
	}
	return r.provider.Name()
}

// Refine polishes a rendered brief. Returns nil when disabled; on
// provider failure it returns a Refinement carrying the failure as a
// warning so callers can keep going.
func (r *Refiner) Refine(ctx context.Context, brief string) (*model.Refinement, error) {
	if r.provider == nil {
		return nil, nil
	}

	if !r.provider.IsAvailable(ctx) {
		return &model.Refinement{
			Enabled:  false,
			Provider: r.provider.Name(),
			Warnings: []string{fmt.Sprintf("provider %s is not available, refinement skipped", r.provider.Name())},
		}, nil
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := r.provider.Refine(ctx, RefineRequest{
		Brief:     brief,
		Model:     r.config.Model,
		MaxTokens: r.config.MaxTokens,
	})
	if err != nil {
		return &model.Refinement{
			Enabled:  true,
			Provider: r.provider.Name(),
			Model:    r.config.Model,
			Warnings: []string{fmt.Sprintf("refinement failed: %v", err)},
		}, nil
	}

	return &model.Refinement{
		Enabled:    true,
		Provider:   r.provider.Name(),
		Model:      resp.Model,
		Text:       resp.Text,
		TokensUsed: resp.TokensUsed,
		Warnings:   []string{fmt.Sprintf("Tokens used: %d", resp.TokensUsed)},
	}, nil
}

// RenderMarkdown renders a refinement as a standalone markdown
// document, clearly labeled as generated content.
func RenderMarkdown(r *model.Refinement) string {
	if r == nil || !r.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Refined Brief\n\n")
	b.WriteString("> GENERATED CONTENT. The snapshot and its findings were determined independently; this text is a readability pass only.\n\n")
	fmt.Fprintf(&b, "- Provider: %s\n", r.Provider)
	fmt.Fprintf(&b, "- Model: %s\n\n", r.Model)

	if r.Text == "" {
		b.WriteString("No refined text generated.\n")
	} else {
		b.WriteString(r.Text)
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
