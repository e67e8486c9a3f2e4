package pattern

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ppiankov/mnemo/internal/model"
)

// Confidence estimates how much to trust a detected pattern from its
// sample size and interval regularity:
//
//	confidence = (1 − exp(−(n−1)/2)) · exp(−cv)
//
// where n is the instance count and cv the coefficient of variation
// (stddev/mean) of the intervals. The formula is zero at n=1, grows
// with consistent instances, and shrinks when a new instance breaks
// the interval trend.
func Confidence(n int, intervals []time.Duration) float64 {
	if n < 2 {
		return 0
	}
	sizeFactor := 1 - math.Exp(-float64(n-1)/2)
	return sizeFactor * math.Exp(-variation(intervals))
}

// variation returns the coefficient of variation of the intervals,
// zero when there are fewer than two samples or the mean is zero.
func variation(intervals []time.Duration) float64 {
	if len(intervals) < 2 {
		return 0
	}
	samples := make([]float64, len(intervals))
	for i, iv := range intervals {
		samples[i] = iv.Seconds()
	}
	mean := stat.Mean(samples, nil)
	if mean <= 0 {
		return 0
	}
	return stat.StdDev(samples, nil) / mean
}

// MeanInterval averages the intervals
func MeanInterval(intervals []time.Duration) time.Duration {
	if len(intervals) == 0 {
		return 0
	}
	var total time.Duration
	for _, iv := range intervals {
		total += iv
	}
	return total / time.Duration(len(intervals))
}

// TrendOf classifies how a pattern develops: escalating when later
// instances come at materially shorter intervals or carry higher
// severity, declining for the inverse, stable otherwise. shift is the
// relative change that flips the classification.
func TrendOf(intervals []time.Duration, severities []float64, shift float64) model.Trend {
	if t := halvesTrend(durationsToSeconds(intervals), shift, true); t != model.TrendStable {
		return t
	}
	// shorter intervals escalate; higher severities escalate, so the
	// comparison direction inverts
	return halvesTrend(severities, shift, false)
}

func durationsToSeconds(intervals []time.Duration) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		out[i] = iv.Seconds()
	}
	return out
}

// halvesTrend compares the mean of the first and second halves of the
// series. When lowerIsEscalating, a shrinking series escalates.
func halvesTrend(series []float64, shift float64, lowerIsEscalating bool) model.Trend {
	if len(series) < 2 {
		return model.TrendStable
	}
	mid := len(series) / 2
	first := stat.Mean(series[:mid], nil)
	second := stat.Mean(series[mid:], nil)
	if first <= 0 {
		return model.TrendStable
	}

	change := (second - first) / first
	switch {
	case change < -shift:
		if lowerIsEscalating {
			return model.TrendEscalating
		}
		return model.TrendDeclining
	case change > shift:
		if lowerIsEscalating {
			return model.TrendDeclining
		}
		return model.TrendEscalating
	default:
		return model.TrendStable
	}
}
