package compress

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mnemo/internal/model"
)

// fixedEstimator charges a flat rate per component, making budget
// arithmetic exact in tests.
type fixedEstimator struct {
	perCall int
}

func (e *fixedEstimator) Estimate(text string) int { return e.perCall }
func (e *fixedEstimator) Name() string             { return "fixed" }

func event(id string, day int, importance float64) model.TimelineEvent {
	return model.TimelineEvent{
		ID:            id,
		Timestamp:     time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		SubjectID:     "entity-1",
		Description:   "event " + id,
		Importance:    importance,
		SourceClaimID: []string{"claim-" + id},
	}
}

func TestCompress_InvalidBudget(t *testing.T) {
	c := NewCompressor(&fixedEstimator{perCall: 1}, 0)

	_, err := c.Compress(model.Snapshot{})
	if err == nil {
		t.Fatal("Expected error for zero budget")
	}
	var confErr *model.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("Expected ConfigurationError, got %T", err)
	}
	if confErr.Field != "compress.budget" {
		t.Errorf("Expected compress.budget field, got %s", confErr.Field)
	}
}

func TestCompress_EverythingFits(t *testing.T) {
	c := NewCompressor(&fixedEstimator{perCall: 10}, 1000)
	snap := model.Snapshot{
		QuickFacts: model.QuickFacts{TurnCount: 2},
		Timeline: []model.TimelineEvent{
			event("a", 3, 5),
			event("b", 1, 9),
		},
	}

	out, err := c.Compress(snap)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(out.Timeline) != 2 {
		t.Fatalf("Expected all events kept, got %d", len(out.Timeline))
	}
	// chronological output order
	if out.Timeline[0].ID != "b" || out.Timeline[1].ID != "a" {
		t.Errorf("Expected chronological order b, a; got %s, %s", out.Timeline[0].ID, out.Timeline[1].ID)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", out.Warnings)
	}
	// quick facts + 2 events, 10 each
	if out.TokenEstimate != 30 {
		t.Errorf("Expected token estimate 30, got %d", out.TokenEstimate)
	}
}

func TestCompress_RankPrefixTruncation(t *testing.T) {
	// quick facts cost 10, each event 10: budget 35 admits exactly two
	c := NewCompressor(&fixedEstimator{perCall: 10}, 35)
	snap := model.Snapshot{
		QuickFacts: model.QuickFacts{TurnCount: 3},
		Timeline: []model.TimelineEvent{
			event("low", 3, 5),
			event("high", 2, 9),
			event("mid", 1, 7),
		},
	}

	out, err := c.Compress(snap)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(out.Timeline) != 2 {
		t.Fatalf("Expected 2 surviving events, got %d", len(out.Timeline))
	}

	// the two most important events survive, re-sorted chronologically
	if out.Timeline[0].ID != "mid" || out.Timeline[1].ID != "high" {
		t.Errorf("Expected mid, high; got %s, %s", out.Timeline[0].ID, out.Timeline[1].ID)
	}

	found := false
	for _, w := range out.Warnings {
		if strings.Contains(w, "dropped 1 of 3 timeline events") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected truncation warning, got %v", out.Warnings)
	}
}

func TestCompress_ShrinkingBudgetShrinksSelection(t *testing.T) {
	snap := model.Snapshot{
		QuickFacts: model.QuickFacts{TurnCount: 3},
		Timeline: []model.TimelineEvent{
			event("low", 3, 5),
			event("high", 2, 9),
			event("mid", 1, 7),
		},
	}

	wide, err := NewCompressor(&fixedEstimator{perCall: 10}, 35).Compress(snap)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	narrow, err := NewCompressor(&fixedEstimator{perCall: 10}, 25).Compress(snap)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(narrow.Timeline) != 1 {
		t.Fatalf("Expected 1 event under the narrow budget, got %d", len(narrow.Timeline))
	}

	// the narrow selection must be a subset of the wide one
	wideIDs := make(map[string]bool)
	for _, ev := range wide.Timeline {
		wideIDs[ev.ID] = true
	}
	for _, ev := range narrow.Timeline {
		if !wideIDs[ev.ID] {
			t.Errorf("Event %s kept under narrow budget but not wide", ev.ID)
		}
	}
	if narrow.Timeline[0].ID != "high" {
		t.Errorf("Expected the most important event to survive, got %s", narrow.Timeline[0].ID)
	}
}

func TestCompress_InputNotModified(t *testing.T) {
	c := NewCompressor(&fixedEstimator{perCall: 10}, 25)
	snap := model.Snapshot{
		QuickFacts: model.QuickFacts{TurnCount: 2},
		Timeline: []model.TimelineEvent{
			event("low", 3, 5),
			event("high", 2, 9),
		},
	}

	if _, err := c.Compress(snap); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(snap.Timeline) != 2 {
		t.Errorf("Input snapshot modified: %d events left", len(snap.Timeline))
	}
	if snap.Timeline[0].ID != "low" {
		t.Errorf("Input timeline reordered: %s first", snap.Timeline[0].ID)
	}
}

func TestCompress_EmptySnapshot(t *testing.T) {
	c := NewCompressor(&fixedEstimator{perCall: 10}, 100)

	out, err := c.Compress(model.Snapshot{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(out.Timeline) != 0 {
		t.Errorf("Expected empty timeline, got %d", len(out.Timeline))
	}
	if out.TokenEstimate != 0 {
		t.Errorf("Expected zero estimate for an empty snapshot, got %d", out.TokenEstimate)
	}
}

func TestHeuristicEstimator(t *testing.T) {
	e := &HeuristicEstimator{}

	if got := e.Estimate(""); got != 0 {
		t.Errorf("Expected 0 for empty text, got %d", got)
	}
	if got := e.Estimate("a"); got < 1 {
		t.Errorf("Expected at least 1 token for nonempty text, got %d", got)
	}

	short := e.Estimate("the settlement was signed")
	long := e.Estimate(strings.Repeat("the settlement was signed ", 20))
	if long <= short {
		t.Errorf("Expected longer text to cost more: %d vs %d", short, long)
	}

	if e.Name() != "heuristic" {
		t.Errorf("Unexpected name %q", e.Name())
	}
}

func TestHeuristicEstimator_Deterministic(t *testing.T) {
	e := &HeuristicEstimator{}
	text := "Opposing counsel delivered the settlement order on 2024-03-01."
	if e.Estimate(text) != e.Estimate(text) {
		t.Error("Estimates differ for identical text")
	}
}

func TestNewEstimator(t *testing.T) {
	est, err := NewEstimator(model.CompressConfig{Estimator: "heuristic"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if est.Name() != "heuristic" {
		t.Errorf("Expected heuristic estimator, got %s", est.Name())
	}

	_, err = NewEstimator(model.CompressConfig{Estimator: "guesswork"})
	if err == nil {
		t.Fatal("Expected error for unknown estimator")
	}
	var confErr *model.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Errorf("Expected ConfigurationError, got %T", err)
	}
}
