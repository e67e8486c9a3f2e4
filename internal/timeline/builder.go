package timeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/mnemo/internal/model"
)

// Builder orders claims into a timeline and detects supersessions.
type Builder struct {
	comparator PredicateComparator
	window     int
}

// NewBuilder creates a timeline builder. window bounds the quadratic
// comparison per entity group to the most recent K claims, so oversized
// groups still terminate in bounded time. A nil comparator selects the
// token-overlap default with the given threshold.
func NewBuilder(comparator PredicateComparator, threshold float64, window int) *Builder {
	if comparator == nil {
		comparator = NewTokenOverlapComparator(threshold)
	}
	if window <= 0 {
		window = 50
	}
	return &Builder{comparator: comparator, window: window}
}

// Output is the constructed timeline
type Output struct {
	Events        []model.TimelineEvent
	Supersessions []model.Supersession
	Warnings      []string
}

// Build groups claims by subject, detects contradictions between
// time-ordered claim pairs, and merges claims into timeline events.
// Claims without a timestamp are excluded from the timeline but
// reported in Warnings, never silently dropped from all output.
func (b *Builder) Build(claims []model.Claim, scored []model.ScoredTurn) *Output {
	out := &Output{}

	importance := make(map[string]float64, len(scored))
	for _, s := range scored {
		importance[s.TurnID] = s.Importance
	}

	groups, subjectOrder := groupBySubject(claims, out)

	supSeq := 0
	touched := make(map[string]string) // claim ID -> supersession role annotation
	for _, subject := range subjectOrder {
		group := groups[subject]
		sortGroup(group)

		for j := 1; j < len(group); j++ {
			start := j - b.window
			if start < 0 {
				start = 0
			}
			for i := start; i < j; i++ {
				earlier, later := group[i], group[j]
				if !earlier.AssertedAt.Before(*later.AssertedAt) {
					continue // invariant: strictly earlier
				}
				reason, conflict := b.conflict(earlier, later)
				if !conflict {
					continue
				}
				supSeq++
				out.Supersessions = append(out.Supersessions, model.Supersession{
					ID:             fmt.Sprintf("supersession-%d", supSeq),
					EarlierClaimID: earlier.ID,
					LaterClaimID:   later.ID,
					SubjectID:      subject,
					Reason:         reason,
				})
				touched[earlier.ID] = "superseded"
				touched[later.ID] = "supersedes earlier claim"
			}
		}
	}

	out.Events = b.buildEvents(groups, subjectOrder, importance, touched)
	return out
}

// conflict reports whether a later claim contradicts an earlier one.
func (b *Builder) conflict(earlier, later *model.Claim) (string, bool) {
	if !b.comparator.Similar(earlier.PredicateText, later.PredicateText) {
		return "", false
	}
	if earlier.Polarity != later.Polarity {
		return fmt.Sprintf("affirm vs deny same predicate: %q vs %q",
			earlier.PredicateText, later.PredicateText), true
	}
	if valuesDiffer(earlier.PredicateText, later.PredicateText) {
		return fmt.Sprintf("conflicting values for same predicate: %q vs %q",
			earlier.PredicateText, later.PredicateText), true
	}
	return "", false
}

// groupBySubject partitions timestamped claims per subject entity,
// preserving subject first-seen order for determinism.
func groupBySubject(claims []model.Claim, out *Output) (map[string][]*model.Claim, []string) {
	groups := make(map[string][]*model.Claim)
	var subjectOrder []string
	for i := range claims {
		claim := &claims[i]
		if claim.AssertedAt == nil {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("claim %s excluded from timeline: no parseable timestamp", claim.ID))
			continue
		}
		if _, ok := groups[claim.SubjectID]; !ok {
			subjectOrder = append(subjectOrder, claim.SubjectID)
		}
		groups[claim.SubjectID] = append(groups[claim.SubjectID], claim)
	}
	return groups, subjectOrder
}

// sortGroup orders a group by asserted-at, ties broken by source turn
// order. Stable, never re-ordered by content.
func sortGroup(group []*model.Claim) {
	sort.SliceStable(group, func(i, j int) bool {
		if !group[i].AssertedAt.Equal(*group[j].AssertedAt) {
			return group[i].AssertedAt.Before(*group[j].AssertedAt)
		}
		return group[i].SourceOrder < group[j].SourceOrder
	})
}

// buildEvents merges claims into events keyed by (subject, timestamp).
// Event importance is the max importance of the contributing turns.
func (b *Builder) buildEvents(groups map[string][]*model.Claim, subjectOrder []string, importance map[string]float64, touched map[string]string) []model.TimelineEvent {
	type eventKey struct {
		subject string
		ts      time.Time
	}

	merged := make(map[eventKey]*model.TimelineEvent)
	var keys []eventKey

	for _, subject := range subjectOrder {
		for _, claim := range groups[subject] {
			key := eventKey{subject: subject, ts: *claim.AssertedAt}
			ev, ok := merged[key]
			if !ok {
				ev = &model.TimelineEvent{
					Timestamp: *claim.AssertedAt,
					SubjectID: subject,
				}
				merged[key] = ev
				keys = append(keys, key)
			}

			desc := claim.PredicateText
			if note, ok := touched[claim.ID]; ok {
				desc += " [" + note + "]"
			}
			if ev.Description == "" {
				ev.Description = desc
			} else if !strings.Contains(ev.Description, desc) {
				ev.Description += "; " + desc
			}
			if imp := importance[claim.SourceTurnID]; imp > ev.Importance {
				ev.Importance = imp
			}
			ev.SourceClaimID = append(ev.SourceClaimID, claim.ID)
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if !keys[i].ts.Equal(keys[j].ts) {
			return keys[i].ts.Before(keys[j].ts)
		}
		return merged[keys[i]].SourceClaimID[0] < merged[keys[j]].SourceClaimID[0]
	})

	events := make([]model.TimelineEvent, 0, len(keys))
	for i, key := range keys {
		ev := merged[key]
		ev.ID = fmt.Sprintf("event-%d", i+1)
		events = append(events, *ev)
	}
	return events
}
