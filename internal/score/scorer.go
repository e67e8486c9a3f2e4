package score

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/mnemo/internal/model"
)

// Scorer assigns importance to turns from a configurable weight table.
// Identical turn + weights always yield identical scores.
type Scorer struct {
	weights model.Weights
}

// NewScorer creates a scorer with the given weight table
func NewScorer(weights model.Weights) *Scorer {
	return &Scorer{weights: weights}
}

var (
	decisionPattern = regexp.MustCompile(`(?i)\b(decide|decision|decided|agreed|choose|chose|will|shall|settled?|lock(ed)? in|switch(ing)? to|go(ing)? with)\b`)
	actionPattern   = regexp.MustCompile(`(?i)(^- \[ \]|\btodo\b|\baction item\b|\bfiled? (the|a)\b|\bsubmit(ted)?\b|\bsend\b|\bdeliver\b)`)
	quotePattern    = regexp.MustCompile("```|`[^`]+`|\"[^\"]{3,}\"")
)

// Score computes the importance of one turn given the distinct entities
// extracted from it. The result is clamped to [0,10].
func (s *Scorer) Score(turn model.Turn, entityCount int) model.ScoredTurn {
	var total float64
	var signals []model.SignalTag

	if decisionPattern.MatchString(turn.Text) {
		total += s.weights.Decision
		signals = append(signals, model.SignalDecision)
	}
	if actionPattern.MatchString(turn.Text) {
		total += s.weights.Action
		signals = append(signals, model.SignalAction)
	}
	if strings.Contains(turn.Text, "?") {
		total += s.weights.Question
		signals = append(signals, model.SignalQuestion)
	}
	if entityCount > 0 {
		counted := entityCount
		if s.weights.EntityCap > 0 && counted > s.weights.EntityCap {
			counted = s.weights.EntityCap
		}
		total += s.weights.EntityMention * float64(counted)
		signals = append(signals, model.SignalEntity)
	}
	if quotePattern.MatchString(turn.Text) {
		total += s.weights.Quote
		signals = append(signals, model.SignalQuote)
	}
	if turn.Role == model.RoleSystem {
		total -= s.weights.SystemDiscount
		signals = append(signals, model.SignalSystem)
	}

	if total < 0 {
		total = 0
	}
	if total > 10 {
		total = 10
	}

	sort.Slice(signals, func(i, j int) bool { return signals[i] < signals[j] })

	return model.ScoredTurn{
		TurnID:     turn.ID,
		Importance: total,
		Signals:    signals,
	}
}

// ScoreAll scores every turn. turnEntities maps turn ID to the distinct
// entity IDs mentioned there (extraction output).
func (s *Scorer) ScoreAll(turns []model.Turn, turnEntities map[string][]string) []model.ScoredTurn {
	scored := make([]model.ScoredTurn, 0, len(turns))
	for _, turn := range turns {
		scored = append(scored, s.Score(turn, len(turnEntities[turn.ID])))
	}
	return scored
}
