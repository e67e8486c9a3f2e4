package pattern

import (
	"testing"
	"time"

	"github.com/ppiankov/mnemo/internal/model"
)

func days(n float64) time.Duration {
	return time.Duration(n * 24 * float64(time.Hour))
}

func TestConfidence_SingleInstanceIsZero(t *testing.T) {
	if c := Confidence(1, nil); c != 0 {
		t.Errorf("Expected 0 for one instance, got %.3f", c)
	}
	if c := Confidence(0, nil); c != 0 {
		t.Errorf("Expected 0 for zero instances, got %.3f", c)
	}
}

func TestConfidence_GrowsWithInstances(t *testing.T) {
	regular := []time.Duration{days(7), days(7), days(7), days(7)}

	c3 := Confidence(3, regular[:2])
	c5 := Confidence(5, regular)
	if c5 <= c3 {
		t.Errorf("Expected confidence to grow with n: n=3 %.3f, n=5 %.3f", c3, c5)
	}

	// five perfectly regular instances clear 0.8
	if c5 <= 0.8 {
		t.Errorf("Expected confidence > 0.8 for 5 regular instances, got %.3f", c5)
	}
	if c5 >= 1 {
		t.Errorf("Confidence must stay below 1, got %.3f", c5)
	}
}

func TestConfidence_IrregularIntervalsShrink(t *testing.T) {
	regular := []time.Duration{days(7), days(7), days(7), days(7)}
	irregular := []time.Duration{days(1), days(20), days(3), days(40)}

	if Confidence(5, irregular) >= Confidence(5, regular) {
		t.Errorf("Expected irregular intervals to lower confidence: %.3f vs %.3f",
			Confidence(5, irregular), Confidence(5, regular))
	}
}

func TestVariation(t *testing.T) {
	if v := variation([]time.Duration{days(7)}); v != 0 {
		t.Errorf("Expected 0 for a single interval, got %.3f", v)
	}
	if v := variation([]time.Duration{days(7), days(7), days(7)}); v != 0 {
		t.Errorf("Expected 0 for identical intervals, got %.3f", v)
	}
	if v := variation([]time.Duration{days(1), days(30)}); v <= 0 {
		t.Errorf("Expected positive variation, got %.3f", v)
	}
}

func TestMeanInterval(t *testing.T) {
	if m := MeanInterval(nil); m != 0 {
		t.Errorf("Expected 0 for no intervals, got %v", m)
	}
	got := MeanInterval([]time.Duration{days(2), days(4)})
	if got != days(3) {
		t.Errorf("Expected 3 days, got %v", got)
	}
}

func TestTrendOf_ShrinkingIntervalsEscalate(t *testing.T) {
	intervals := []time.Duration{days(40), days(30), days(20), days(10)}
	if trend := TrendOf(intervals, nil, 0.2); trend != model.TrendEscalating {
		t.Errorf("Expected escalating, got %s", trend)
	}
}

func TestTrendOf_GrowingIntervalsDecline(t *testing.T) {
	intervals := []time.Duration{days(10), days(20), days(30), days(40)}
	if trend := TrendOf(intervals, nil, 0.2); trend != model.TrendDeclining {
		t.Errorf("Expected declining, got %s", trend)
	}
}

func TestTrendOf_SteadyIsStable(t *testing.T) {
	intervals := []time.Duration{days(10), days(10), days(10), days(10)}
	if trend := TrendOf(intervals, nil, 0.2); trend != model.TrendStable {
		t.Errorf("Expected stable, got %s", trend)
	}
}

func TestTrendOf_SeverityBreaksTie(t *testing.T) {
	intervals := []time.Duration{days(10), days(10), days(10), days(10)}
	rising := []float64{2, 2, 8, 8}
	if trend := TrendOf(intervals, rising, 0.2); trend != model.TrendEscalating {
		t.Errorf("Expected rising severity to escalate, got %s", trend)
	}
	falling := []float64{8, 8, 2, 2}
	if trend := TrendOf(intervals, falling, 0.2); trend != model.TrendDeclining {
		t.Errorf("Expected falling severity to decline, got %s", trend)
	}
}
