package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/mnemo/internal/model"
)

// SnapshotDiff describes what a new batch of turns changed. Derived
// data is never patched in place: the pipeline reruns over the full
// turn history and the diff is computed between the two snapshots.
type SnapshotDiff struct {
	NewEvents         []model.TimelineEvent `json:"new_events,omitempty"`
	DroppedEvents     []model.TimelineEvent `json:"dropped_events,omitempty"`
	NewContradictions []model.Supersession  `json:"new_contradictions,omitempty"`
	NewPatterns       []model.Pattern       `json:"new_patterns,omitempty"`
	ResolvedPatterns  []model.Pattern       `json:"resolved_patterns,omitempty"`
}

// Empty reports whether the update changed nothing visible
func (d *SnapshotDiff) Empty() bool {
	return len(d.NewEvents) == 0 && len(d.DroppedEvents) == 0 &&
		len(d.NewContradictions) == 0 && len(d.NewPatterns) == 0 && len(d.ResolvedPatterns) == 0
}

// Update digests previous ++ new turns as one sequence and diffs the
// result against the previous snapshot. Orders of the new turns are
// renumbered to continue the history.
func (p *Pipeline) Update(ctx context.Context, previous *model.Snapshot, history, fresh []model.Turn) (*model.Snapshot, *SnapshotDiff, error) {
	combined := make([]model.Turn, 0, len(history)+len(fresh))
	combined = append(combined, history...)
	for i, turn := range fresh {
		turn.Order = len(history) + i + 1
		turn.ID = fmt.Sprintf("turn-%d", turn.Order)
		combined = append(combined, turn)
	}

	title := ""
	if previous != nil {
		title = previous.QuickFacts.Title
	}

	snap, err := p.DigestTurns(ctx, combined, title)
	if err != nil {
		return nil, nil, err
	}
	return snap, Diff(previous, snap), nil
}

// Diff compares two snapshots. Events are matched on content, not ID:
// IDs are positional and shift when earlier events appear.
func Diff(old, current *model.Snapshot) *SnapshotDiff {
	diff := &SnapshotDiff{}
	if old == nil {
		diff.NewEvents = current.Timeline
		diff.NewContradictions = current.Contradictions
		diff.NewPatterns = current.Patterns
		return diff
	}

	oldEvents := make(map[string]bool, len(old.Timeline))
	for _, ev := range old.Timeline {
		oldEvents[eventFingerprint(ev)] = true
	}
	newEvents := make(map[string]bool, len(current.Timeline))
	for _, ev := range current.Timeline {
		newEvents[eventFingerprint(ev)] = true
		if !oldEvents[eventFingerprint(ev)] {
			diff.NewEvents = append(diff.NewEvents, ev)
		}
	}
	for _, ev := range old.Timeline {
		if !newEvents[eventFingerprint(ev)] {
			diff.DroppedEvents = append(diff.DroppedEvents, ev)
		}
	}

	oldContra := make(map[string]bool, len(old.Contradictions))
	for _, c := range old.Contradictions {
		oldContra[c.SubjectID+"\x00"+c.Reason] = true
	}
	for _, c := range current.Contradictions {
		if !oldContra[c.SubjectID+"\x00"+c.Reason] {
			diff.NewContradictions = append(diff.NewContradictions, c)
		}
	}

	oldPatterns := make(map[string]bool, len(old.Patterns))
	for _, p := range old.Patterns {
		oldPatterns[patternFingerprint(p)] = true
	}
	newPatterns := make(map[string]bool, len(current.Patterns))
	for _, p := range current.Patterns {
		newPatterns[patternFingerprint(p)] = true
		if !oldPatterns[patternFingerprint(p)] {
			diff.NewPatterns = append(diff.NewPatterns, p)
		}
	}
	for _, p := range old.Patterns {
		if !newPatterns[patternFingerprint(p)] {
			diff.ResolvedPatterns = append(diff.ResolvedPatterns, p)
		}
	}
	return diff
}

// RenderDiff renders an update summary
func (r *Renderer) RenderDiff(diff *SnapshotDiff) string {
	if diff.Empty() {
		return "No changes.\n"
	}

	var b strings.Builder
	if len(diff.NewEvents) > 0 {
		fmt.Fprintf(&b, "New events (%d):\n", len(diff.NewEvents))
		for _, ev := range diff.NewEvents {
			fmt.Fprintf(&b, "- %s %s\n", ev.Timestamp.Format("2006-01-02"), ev.Description)
		}
	}
	if len(diff.DroppedEvents) > 0 {
		fmt.Fprintf(&b, "Dropped events (%d, displaced by budget or merged):\n", len(diff.DroppedEvents))
		for _, ev := range diff.DroppedEvents {
			fmt.Fprintf(&b, "- %s %s\n", ev.Timestamp.Format("2006-01-02"), ev.Description)
		}
	}
	if len(diff.NewContradictions) > 0 {
		fmt.Fprintf(&b, "New contradictions (%d):\n", len(diff.NewContradictions))
		for _, c := range diff.NewContradictions {
			fmt.Fprintf(&b, "- %s\n", c.Reason)
		}
	}
	if len(diff.NewPatterns) > 0 {
		fmt.Fprintf(&b, "New patterns (%d):\n", len(diff.NewPatterns))
		for _, p := range diff.NewPatterns {
			fmt.Fprintf(&b, "- %s\n", p.Description)
		}
	}
	if len(diff.ResolvedPatterns) > 0 {
		fmt.Fprintf(&b, "No longer detected (%d):\n", len(diff.ResolvedPatterns))
		for _, p := range diff.ResolvedPatterns {
			fmt.Fprintf(&b, "- %s\n", p.Description)
		}
	}
	return b.String()
}

func eventFingerprint(ev model.TimelineEvent) string {
	return ev.Timestamp.UTC().Format("2006-01-02T15:04:05") + "\x00" + ev.SubjectID + "\x00" + ev.Description
}

func patternFingerprint(p model.Pattern) string {
	return string(p.Kind) + "\x00" + p.SubjectID + "\x00" + fmt.Sprintf("%d", p.InstanceCount)
}
