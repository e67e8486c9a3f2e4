package pattern

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mnemo/internal/model"
)

func testConfig() model.PatternConfig {
	return model.PatternConfig{
		CycleLookahead:    45 * 24 * time.Hour,
		MinIntervalEvents: 3,
		IntervalCVMax:     0.35,
		TrendShift:        0.2,
	}
}

func at(day int) *time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day)
	return &t
}

// cyclePairs builds n affirm claims each contradicted gapDays later,
// with pairs starting every strideDays.
func cyclePairs(subject string, n, strideDays, gapDays int) ([]model.Claim, []model.Supersession) {
	var claims []model.Claim
	var sups []model.Supersession
	for i := 0; i < n; i++ {
		start := i * strideDays
		earlier := model.Claim{
			ID:         fmt.Sprintf("claim-%d", 2*i+1),
			SubjectID:  subject,
			Polarity:   model.PolarityAffirm,
			AssertedAt: at(start),
		}
		later := model.Claim{
			ID:         fmt.Sprintf("claim-%d", 2*i+2),
			SubjectID:  subject,
			Polarity:   model.PolarityDeny,
			AssertedAt: at(start + gapDays),
		}
		claims = append(claims, earlier, later)
		sups = append(sups, model.Supersession{
			ID:             fmt.Sprintf("supersession-%d", i+1),
			EarlierClaimID: earlier.ID,
			LaterClaimID:   later.ID,
			SubjectID:      subject,
		})
	}
	return claims, sups
}

func TestDetect_CyclePattern(t *testing.T) {
	claims, sups := cyclePairs("entity-1", 5, 12, 5)
	detector := NewDetector(testConfig())

	patterns := detector.Detect(claims, nil, sups)

	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if p.Kind != model.PatternCycle {
		t.Errorf("Expected cycle kind, got %s", p.Kind)
	}
	if p.ID != "pattern-1" {
		t.Errorf("Expected pattern-1, got %s", p.ID)
	}
	if p.InstanceCount != 5 {
		t.Errorf("Expected 5 instances, got %d", p.InstanceCount)
	}
	if len(p.InstanceClaimIDs) != p.InstanceCount {
		t.Errorf("Instance IDs (%d) must match instance count (%d)", len(p.InstanceClaimIDs), p.InstanceCount)
	}
	if p.Confidence <= 0.8 {
		t.Errorf("Expected confidence > 0.8 for 5 regular pairs, got %.3f", p.Confidence)
	}
	if p.MeanInterval != 5*24*time.Hour {
		t.Errorf("Expected 5-day mean gap, got %v", p.MeanInterval)
	}
	if !strings.Contains(p.Description, "5 affirm") {
		t.Errorf("Unexpected description: %q", p.Description)
	}
}

func TestDetect_SinglePairIsNotACycle(t *testing.T) {
	claims, sups := cyclePairs("entity-1", 1, 12, 5)
	detector := NewDetector(testConfig())

	if patterns := detector.Detect(claims, nil, sups); len(patterns) != 0 {
		t.Errorf("Expected no pattern from a single pair, got %d", len(patterns))
	}
}

func TestDetect_DenyFirstPairExcluded(t *testing.T) {
	claims, sups := cyclePairs("entity-1", 2, 12, 5)
	// flip the earlier claims to deny: a retraction, not a broken promise
	for i := range claims {
		if claims[i].Polarity == model.PolarityAffirm {
			claims[i].Polarity = model.PolarityDeny
		}
	}
	detector := NewDetector(testConfig())

	if patterns := detector.Detect(claims, nil, sups); len(patterns) != 0 {
		t.Errorf("Expected deny-first pairs excluded, got %d patterns", len(patterns))
	}
}

func TestDetect_LookaheadBoundsPairs(t *testing.T) {
	// 60-day gaps exceed the 45-day lookahead
	claims, sups := cyclePairs("entity-1", 3, 90, 60)
	detector := NewDetector(testConfig())

	if patterns := detector.Detect(claims, nil, sups); len(patterns) != 0 {
		t.Errorf("Expected pairs past the lookahead excluded, got %d patterns", len(patterns))
	}
}

func intervalEvents(subject string, n, everyDays int) []model.TimelineEvent {
	events := make([]model.TimelineEvent, n)
	for i := range events {
		events[i] = model.TimelineEvent{
			ID:            fmt.Sprintf("event-%d", i+1),
			Timestamp:     *at(i * everyDays),
			SubjectID:     subject,
			Importance:    5,
			SourceClaimID: []string{fmt.Sprintf("claim-%d", i+1)},
		}
	}
	return events
}

func TestDetect_IntervalPattern(t *testing.T) {
	events := intervalEvents("entity-1", 5, 7)
	detector := NewDetector(testConfig())

	patterns := detector.Detect(nil, events, nil)

	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if p.Kind != model.PatternInterval {
		t.Errorf("Expected interval kind, got %s", p.Kind)
	}
	if p.InstanceCount != 5 || len(p.InstanceClaimIDs) != 5 {
		t.Errorf("Expected 5 instances with 5 claim IDs, got %d/%d", p.InstanceCount, len(p.InstanceClaimIDs))
	}
	if p.MeanInterval != 7*24*time.Hour {
		t.Errorf("Expected 7-day mean interval, got %v", p.MeanInterval)
	}
	if p.Trend != model.TrendStable {
		t.Errorf("Expected stable trend, got %s", p.Trend)
	}
}

func TestDetect_IrregularEventsNotPeriodic(t *testing.T) {
	events := intervalEvents("entity-1", 5, 7)
	// scatter the timestamps so the gaps lose their regularity
	events[1].Timestamp = *at(1)
	events[3].Timestamp = *at(40)
	detector := NewDetector(testConfig())

	if patterns := detector.Detect(nil, events, nil); len(patterns) != 0 {
		t.Errorf("Expected no interval pattern from irregular gaps, got %d", len(patterns))
	}
}

func TestDetect_TooFewEvents(t *testing.T) {
	events := intervalEvents("entity-1", 2, 7)
	detector := NewDetector(testConfig())

	if patterns := detector.Detect(nil, events, nil); len(patterns) != 0 {
		t.Errorf("Expected no pattern below the event minimum, got %d", len(patterns))
	}
}

func TestDetect_SortedByConfidence(t *testing.T) {
	claims, sups := cyclePairs("entity-1", 2, 12, 5)
	events := intervalEvents("entity-2", 6, 7)
	detector := NewDetector(testConfig())

	patterns := detector.Detect(claims, events, sups)

	if len(patterns) != 2 {
		t.Fatalf("Expected 2 patterns, got %d", len(patterns))
	}
	if patterns[0].Confidence < patterns[1].Confidence {
		t.Errorf("Expected confidence-descending order: %.3f then %.3f",
			patterns[0].Confidence, patterns[1].Confidence)
	}
	for i, p := range patterns {
		want := fmt.Sprintf("pattern-%d", i+1)
		if p.ID != want {
			t.Errorf("Expected %s, got %s", want, p.ID)
		}
	}
}

func TestDetect_Deterministic(t *testing.T) {
	claims, sups := cyclePairs("entity-1", 3, 12, 5)
	events := intervalEvents("entity-2", 4, 7)
	detector := NewDetector(testConfig())

	first := detector.Detect(claims, events, sups)
	second := detector.Detect(claims, events, sups)

	if len(first) != len(second) {
		t.Fatalf("Pattern counts differ across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Confidence != second[i].Confidence {
			t.Errorf("Pattern %d differs across runs", i)
		}
	}
}
