package compress

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ppiankov/mnemo/internal/model"
)

// Compressor fits a snapshot into a token budget. Patterns,
// contradictions and preserved code are always kept: they are the
// high-value part of a snapshot and dropping them silently would hide
// exactly the findings the pipeline exists to surface. Timeline events
// are the variable part, admitted in importance order.
type Compressor struct {
	estimator TokenEstimator
	budget    int
}

// NewCompressor creates a compressor
func NewCompressor(estimator TokenEstimator, budget int) *Compressor {
	return &Compressor{estimator: estimator, budget: budget}
}

// Compress selects which timeline events survive and fills in the
// token estimate. The input snapshot is not modified.
//
// Selection is a rank prefix: events are tried in importance order
// (ties to the earlier event) and admission stops at the first event
// that would overflow the budget. A lower-ranked event never appears
// without every higher-ranked one, so shrinking the budget can only
// shrink the selection.
func (c *Compressor) Compress(snap model.Snapshot) (model.Snapshot, error) {
	if c.budget <= 0 {
		return model.Snapshot{}, &model.ConfigurationError{
			Field:  "compress.budget",
			Reason: "must be positive",
		}
	}

	out := snap

	// empty components cost nothing, so an empty snapshot estimates to zero
	base := 0
	if snap.QuickFacts.TurnCount > 0 {
		base += c.cost(snap.QuickFacts)
	}
	if len(snap.Patterns) > 0 {
		base += c.cost(snap.Patterns)
	}
	if len(snap.Contradictions) > 0 {
		base += c.cost(snap.Contradictions)
	}
	if len(snap.CodeBlocks) > 0 {
		base += c.cost(snap.CodeBlocks)
	}

	ranked := make([]model.TimelineEvent, len(snap.Timeline))
	copy(ranked, snap.Timeline)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Importance != ranked[j].Importance {
			return ranked[i].Importance > ranked[j].Importance
		}
		return ranked[i].Timestamp.Before(ranked[j].Timestamp)
	})

	total := base
	var kept []model.TimelineEvent
	for _, ev := range ranked {
		evCost := c.cost(ev)
		if total+evCost > c.budget {
			break
		}
		total += evCost
		kept = append(kept, ev)
	}

	if dropped := len(ranked) - len(kept); dropped > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("token budget %d reached: dropped %d of %d timeline events", c.budget, dropped, len(ranked)))
	}

	// readers get the survivors back in chronological order
	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].Timestamp.Equal(kept[j].Timestamp) {
			return kept[i].Timestamp.Before(kept[j].Timestamp)
		}
		return kept[i].ID < kept[j].ID
	})
	out.Timeline = kept
	out.TokenEstimate = total
	return out, nil
}

// cost estimates the token cost of a snapshot component via its JSON
// form, which is what actually lands in a context window.
func (c *Compressor) cost(v interface{}) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return c.estimator.Estimate(string(data))
}
