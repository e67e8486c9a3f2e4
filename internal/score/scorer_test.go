package score

import (
	"testing"

	"github.com/ppiankov/mnemo/internal/model"
)

func testWeights() model.Weights {
	return model.Weights{
		Decision:       3,
		Action:         2,
		Question:       1,
		EntityMention:  1,
		EntityCap:      3,
		Quote:          2,
		SystemDiscount: 1,
	}
}

func hasSignal(signals []model.SignalTag, tag model.SignalTag) bool {
	for _, s := range signals {
		if s == tag {
			return true
		}
	}
	return false
}

func TestScore_DecisionSignal(t *testing.T) {
	scorer := NewScorer(testWeights())
	turn := model.Turn{ID: "turn-1", Role: model.RoleUser, Text: "We agreed to settle the matter."}

	scored := scorer.Score(turn, 0)

	if scored.Importance != 3 {
		t.Errorf("Expected importance 3, got %.1f", scored.Importance)
	}
	if !hasSignal(scored.Signals, model.SignalDecision) {
		t.Errorf("Expected decision signal, got %v", scored.Signals)
	}
}

func TestScore_QuestionSignal(t *testing.T) {
	scorer := NewScorer(testWeights())
	turn := model.Turn{ID: "turn-1", Role: model.RoleUser, Text: "What happens next month then"}

	scored := scorer.Score(turn, 0)
	if scored.Importance != 0 {
		t.Errorf("Expected 0 without question mark, got %.1f", scored.Importance)
	}

	turn.Text = "What happens next month?"
	scored = scorer.Score(turn, 0)
	if scored.Importance != 1 {
		t.Errorf("Expected importance 1, got %.1f", scored.Importance)
	}
	if !hasSignal(scored.Signals, model.SignalQuestion) {
		t.Errorf("Expected question signal, got %v", scored.Signals)
	}
}

func TestScore_EntityMentionsCapped(t *testing.T) {
	scorer := NewScorer(testWeights())
	turn := model.Turn{ID: "turn-1", Role: model.RoleUser, Text: "Plain recap of the names involved"}

	scored := scorer.Score(turn, 5)

	// 5 entities, cap 3, weight 1 each
	if scored.Importance != 3 {
		t.Errorf("Expected capped entity score 3, got %.1f", scored.Importance)
	}
	if !hasSignal(scored.Signals, model.SignalEntity) {
		t.Errorf("Expected entity signal, got %v", scored.Signals)
	}
}

func TestScore_QuoteSignal(t *testing.T) {
	scorer := NewScorer(testWeights())
	turn := model.Turn{ID: "turn-1", Role: model.RoleUser, Text: "The clause reads \"time is of the essence\" verbatim"}

	scored := scorer.Score(turn, 0)
	if scored.Importance != 2 {
		t.Errorf("Expected importance 2, got %.1f", scored.Importance)
	}
	if !hasSignal(scored.Signals, model.SignalQuote) {
		t.Errorf("Expected quote signal, got %v", scored.Signals)
	}
}

func TestScore_SystemDiscount(t *testing.T) {
	scorer := NewScorer(testWeights())
	turn := model.Turn{ID: "turn-1", Role: model.RoleSystem, Text: "Session restored from checkpoint"}

	scored := scorer.Score(turn, 0)

	// discount alone must clamp at zero, never go negative
	if scored.Importance != 0 {
		t.Errorf("Expected clamped importance 0, got %.1f", scored.Importance)
	}
	if !hasSignal(scored.Signals, model.SignalSystem) {
		t.Errorf("Expected system signal, got %v", scored.Signals)
	}
}

func TestScore_ClampedAtTen(t *testing.T) {
	weights := testWeights()
	weights.Decision = 8
	scorer := NewScorer(weights)
	turn := model.Turn{ID: "turn-1", Role: model.RoleUser, Text: "We decided. TODO: file the motion?"}

	scored := scorer.Score(turn, 0)
	if scored.Importance != 10 {
		t.Errorf("Expected clamp at 10, got %.1f", scored.Importance)
	}
}

func TestScore_SignalsSorted(t *testing.T) {
	scorer := NewScorer(testWeights())
	turn := model.Turn{ID: "turn-1", Role: model.RoleUser, Text: "We decided to submit the filing. Right?"}

	scored := scorer.Score(turn, 2)
	for i := 1; i < len(scored.Signals); i++ {
		if scored.Signals[i-1] > scored.Signals[i] {
			t.Errorf("Signals not sorted: %v", scored.Signals)
		}
	}
}

func TestScoreAll(t *testing.T) {
	scorer := NewScorer(testWeights())
	turns := []model.Turn{
		{ID: "turn-1", Role: model.RoleUser, Text: "We agreed on the plan."},
		{ID: "turn-2", Role: model.RoleUser, Text: "Nothing notable here"},
	}
	turnEntities := map[string][]string{
		"turn-1": {"entity-1"},
	}

	scored := scorer.ScoreAll(turns, turnEntities)

	if len(scored) != 2 {
		t.Fatalf("Expected 2 scored turns, got %d", len(scored))
	}
	if scored[0].TurnID != "turn-1" {
		t.Errorf("Expected turn-1 first, got %s", scored[0].TurnID)
	}
	if scored[0].Importance != 4 { // decision 3 + one entity
		t.Errorf("Expected importance 4, got %.1f", scored[0].Importance)
	}
	if scored[1].Importance != 0 {
		t.Errorf("Expected importance 0, got %.1f", scored[1].Importance)
	}
}

func TestScore_Deterministic(t *testing.T) {
	scorer := NewScorer(testWeights())
	turn := model.Turn{ID: "turn-1", Role: model.RoleUser, Text: "We agreed to deliver the draft. Any questions?"}

	first := scorer.Score(turn, 2)
	second := scorer.Score(turn, 2)

	if first.Importance != second.Importance {
		t.Errorf("Importance differs across runs: %.2f vs %.2f", first.Importance, second.Importance)
	}
	if len(first.Signals) != len(second.Signals) {
		t.Errorf("Signals differ across runs: %v vs %v", first.Signals, second.Signals)
	}
}
