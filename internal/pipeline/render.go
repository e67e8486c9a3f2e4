package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/mnemo/internal/model"
)

// Format names accepted by Render.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatBrief    = "brief"
	FormatCard     = "card"
	FormatSlack    = "slack"
	FormatResume   = "resume"
)

// Renderer turns snapshots into human- or machine-readable output.
// All renderings are pure functions of the snapshot.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// Render dispatches on format name
func (r *Renderer) Render(snap *model.Snapshot, format string) (string, error) {
	switch format {
	case FormatJSON:
		data, err := r.RenderJSON(snap)
		return string(data), err
	case FormatMarkdown:
		return r.RenderMarkdown(snap), nil
	case FormatBrief:
		return r.RenderBrief(snap), nil
	case FormatCard:
		return r.RenderContextCard(snap), nil
	case FormatSlack:
		return r.RenderSlack(snap), nil
	case FormatResume:
		return r.ResumptionPrompt(snap), nil
	default:
		return "", fmt.Errorf("unknown format: %s (supported: json, markdown, brief, card, slack, resume)", format)
	}
}

// RenderJSON serializes the snapshot with stable indentation
func (r *Renderer) RenderJSON(snap *model.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile renders the given format to a file
func (r *Renderer) WriteFile(snap *model.Snapshot, format, path string) error {
	content, err := r.Render(snap, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown produces the full report: every retained event,
// every contradiction and pattern, plus warnings.
func (r *Renderer) RenderMarkdown(snap *model.Snapshot) string {
	var b strings.Builder

	title := snap.QuickFacts.Title
	if title == "" {
		title = "Conversation Snapshot"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Quick Facts\n\n")
	fmt.Fprintf(&b, "- Turns: %d\n", snap.QuickFacts.TurnCount)
	fmt.Fprintf(&b, "- Entities: %d\n", snap.QuickFacts.EntityCount)
	fmt.Fprintf(&b, "- Claims: %d\n", snap.QuickFacts.ClaimCount)
	if len(snap.QuickFacts.TopEntities) > 0 {
		fmt.Fprintf(&b, "- Key names: %s\n", strings.Join(snap.QuickFacts.TopEntities, ", "))
	}
	if snap.QuickFacts.FirstSeen != nil && snap.QuickFacts.LastSeen != nil {
		fmt.Fprintf(&b, "- Covers: %s to %s\n",
			snap.QuickFacts.FirstSeen.Format("2006-01-02"),
			snap.QuickFacts.LastSeen.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "- Token estimate: %d\n\n", snap.TokenEstimate)

	b.WriteString("## Timeline\n\n")
	if len(snap.Timeline) == 0 {
		b.WriteString("No dated events.\n\n")
	} else {
		for _, ev := range snap.Timeline {
			fmt.Fprintf(&b, "- **%s** %s (importance %.1f)\n",
				ev.Timestamp.Format("2006-01-02"), ev.Description, ev.Importance)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Contradictions\n\n")
	if len(snap.Contradictions) == 0 {
		b.WriteString("None detected.\n\n")
	} else {
		for _, c := range snap.Contradictions {
			fmt.Fprintf(&b, "- %s (%s superseded by %s)\n", c.Reason, c.EarlierClaimID, c.LaterClaimID)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Patterns\n\n")
	if len(snap.Patterns) == 0 {
		b.WriteString("None detected.\n\n")
	} else {
		for _, p := range snap.Patterns {
			fmt.Fprintf(&b, "- [%s, confidence %.2f, %s] %s\n", p.Kind, p.Confidence, p.Trend, p.Description)
		}
		b.WriteString("\n")
	}

	if len(snap.CodeBlocks) > 0 {
		b.WriteString("## Code\n\n")
		for _, cb := range snap.CodeBlocks {
			if cb.Context != "" {
				fmt.Fprintf(&b, "*%s*\n", cb.Context)
			}
			fmt.Fprintf(&b, "```%s\n%s\n```\n\n", cb.Language, cb.Content)
		}
	}

	if len(snap.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range snap.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n_Generated by mnemo. Findings are derived from the transcript only._\n")
	}
	return b.String()
}

// RenderBrief produces a compact plain rendering, the input for
// optional LLM refinement.
func (r *Renderer) RenderBrief(snap *model.Snapshot) string {
	var b strings.Builder

	if snap.QuickFacts.Title != "" {
		fmt.Fprintf(&b, "Thread: %s\n", snap.QuickFacts.Title)
	}
	fmt.Fprintf(&b, "Scope: %d turns, %d entities, %d claims\n\n",
		snap.QuickFacts.TurnCount, snap.QuickFacts.EntityCount, snap.QuickFacts.ClaimCount)

	b.WriteString("Timeline:\n")
	if len(snap.Timeline) == 0 {
		b.WriteString("- (no dated events)\n")
	}
	for _, ev := range snap.Timeline {
		fmt.Fprintf(&b, "- %s: %s\n", ev.Timestamp.Format("2006-01-02"), ev.Description)
	}

	if len(snap.Contradictions) > 0 {
		b.WriteString("\nContradictions:\n")
		for _, c := range snap.Contradictions {
			fmt.Fprintf(&b, "- %s\n", c.Reason)
		}
	}

	if len(snap.Patterns) > 0 {
		b.WriteString("\nPatterns:\n")
		for _, p := range snap.Patterns {
			fmt.Fprintf(&b, "- %s (confidence %.2f, %s)\n", p.Description, p.Confidence, p.Trend)
		}
	}
	return b.String()
}

// RenderContextCard produces a minimal paste-into-context card: the
// facts an assistant needs to pick the thread back up, nothing else.
func (r *Renderer) RenderContextCard(snap *model.Snapshot) string {
	var b strings.Builder

	b.WriteString("CONTEXT CARD\n")
	if snap.QuickFacts.Title != "" {
		fmt.Fprintf(&b, "Topic: %s\n", snap.QuickFacts.Title)
	}
	if len(snap.QuickFacts.TopEntities) > 0 {
		fmt.Fprintf(&b, "Who/what: %s\n", strings.Join(snap.QuickFacts.TopEntities, ", "))
	}

	// most important events only, capped
	events := rankEvents(snap.Timeline, 5)
	if len(events) > 0 {
		b.WriteString("Key events:\n")
		for _, ev := range events {
			fmt.Fprintf(&b, "- %s %s\n", ev.Timestamp.Format("2006-01-02"), ev.Description)
		}
	}
	if len(snap.Contradictions) > 0 {
		fmt.Fprintf(&b, "Open contradictions: %d\n", len(snap.Contradictions))
	}
	for _, p := range snap.Patterns {
		fmt.Fprintf(&b, "Pattern: %s\n", p.Description)
	}
	return b.String()
}

// RenderSlack produces a short summary with Slack-style formatting
func (r *Renderer) RenderSlack(snap *model.Snapshot) string {
	var b strings.Builder

	title := snap.QuickFacts.Title
	if title == "" {
		title = "Conversation snapshot"
	}
	fmt.Fprintf(&b, "*%s*\n", title)
	fmt.Fprintf(&b, "_%d turns, %d entities, %d claims_\n",
		snap.QuickFacts.TurnCount, snap.QuickFacts.EntityCount, snap.QuickFacts.ClaimCount)

	for _, ev := range rankEvents(snap.Timeline, 3) {
		fmt.Fprintf(&b, "• %s %s\n", ev.Timestamp.Format("Jan 2"), ev.Description)
	}
	if n := len(snap.Contradictions); n > 0 {
		fmt.Fprintf(&b, ":warning: %d contradiction(s) detected\n", n)
	}
	if n := len(snap.Patterns); n > 0 {
		fmt.Fprintf(&b, ":repeat: %d recurring pattern(s)\n", n)
	}
	return b.String()
}

// ResumptionPrompt renders a ready-to-paste prompt for continuing the
// conversation in a fresh session.
func (r *Renderer) ResumptionPrompt(snap *model.Snapshot) string {
	var b strings.Builder

	b.WriteString("You are resuming an earlier conversation. Verified context follows.\n\n")
	b.WriteString(r.RenderBrief(snap))
	b.WriteString("\nContinue from this state. Do not re-ask for facts listed above; ")
	b.WriteString("flag any contradiction before relying on a superseded claim.\n")
	return b.String()
}

// RenderSummary prints a short digest summary, for CLI stdout
func (r *Renderer) RenderSummary(snap *model.Snapshot, w io.Writer) {
	fmt.Fprintf(w, "Digested %d turns: %d entities, %d claims, %d events, %d contradictions, %d patterns (~%d tokens)\n",
		snap.QuickFacts.TurnCount, snap.QuickFacts.EntityCount, snap.QuickFacts.ClaimCount,
		len(snap.Timeline), len(snap.Contradictions), len(snap.Patterns), snap.TokenEstimate)
	for _, warning := range snap.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}

// rankEvents returns up to n events by importance desc, timestamp asc.
func rankEvents(events []model.TimelineEvent, n int) []model.TimelineEvent {
	ranked := make([]model.TimelineEvent, len(events))
	copy(ranked, events)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Importance != ranked[j].Importance {
			return ranked[i].Importance > ranked[j].Importance
		}
		return ranked[i].Timestamp.Before(ranked[j].Timestamp)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Timestamp.Before(ranked[j].Timestamp)
	})
	return ranked
}
