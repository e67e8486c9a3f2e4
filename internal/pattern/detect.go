package pattern

import (
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/mnemo/internal/model"
)

// Detector finds recurring motifs in the ordered event stream.
// Detection (finding candidate instance sequences) is separate from
// scoring (stats.go), so each is testable with synthetic sequences.
type Detector struct {
	cfg model.PatternConfig
}

// NewDetector creates a pattern detector
func NewDetector(cfg model.PatternConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Detect runs all detectors and returns patterns sorted by confidence
// descending (ties by subject first-seen order, which keeps repeated
// runs byte-identical).
func (d *Detector) Detect(claims []model.Claim, events []model.TimelineEvent, supersessions []model.Supersession) []model.Pattern {
	byID := make(map[string]*model.Claim, len(claims))
	for i := range claims {
		byID[claims[i].ID] = &claims[i]
	}

	var patterns []model.Pattern
	patterns = append(patterns, d.detectCycles(byID, supersessions)...)
	patterns = append(patterns, d.detectIntervals(events)...)

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})
	for i := range patterns {
		patterns[i].ID = fmt.Sprintf("pattern-%d", i+1)
	}
	return patterns
}

// detectCycles finds repeated affirm→contradiction pairs per subject:
// the promise-then-violation motif. Supersessions already carry the
// pairs; a cycle needs at least two of them within the lookahead.
func (d *Detector) detectCycles(byID map[string]*model.Claim, supersessions []model.Supersession) []model.Pattern {
	type pair struct {
		earlier, later *model.Claim
	}
	bySubject := make(map[string][]pair)
	var subjectOrder []string

	for _, sup := range supersessions {
		earlier, later := byID[sup.EarlierClaimID], byID[sup.LaterClaimID]
		if earlier == nil || later == nil || earlier.Polarity != model.PolarityAffirm {
			continue
		}
		if earlier.AssertedAt == nil || later.AssertedAt == nil {
			continue
		}
		if later.AssertedAt.Sub(*earlier.AssertedAt) > d.cfg.CycleLookahead {
			continue
		}
		if _, ok := bySubject[sup.SubjectID]; !ok {
			subjectOrder = append(subjectOrder, sup.SubjectID)
		}
		bySubject[sup.SubjectID] = append(bySubject[sup.SubjectID], pair{earlier: earlier, later: later})
	}

	var patterns []model.Pattern
	for _, subject := range subjectOrder {
		pairs := bySubject[subject]
		if len(pairs) < 2 {
			continue
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return pairs[i].earlier.AssertedAt.Before(*pairs[j].earlier.AssertedAt)
		})

		intervals := make([]time.Duration, len(pairs))
		ids := make([]string, len(pairs))
		for i, p := range pairs {
			intervals[i] = p.later.AssertedAt.Sub(*p.earlier.AssertedAt)
			ids[i] = p.later.ID // the violation is the instance; pairs audit via supersessions
		}

		n := len(pairs)
		patterns = append(patterns, model.Pattern{
			Kind:             model.PatternCycle,
			SubjectID:        subject,
			InstanceClaimIDs: ids,
			InstanceCount:    n,
			MeanInterval:     MeanInterval(intervals),
			Confidence:       Confidence(n, intervals),
			Trend:            TrendOf(intervals, nil, d.cfg.TrendShift),
			Description: fmt.Sprintf("%d affirm→violation pairs, mean gap %s",
				n, humanDuration(MeanInterval(intervals))),
		})
	}
	return patterns
}

// detectIntervals finds subjects whose events recur on a near-periodic
// schedule: inter-event gaps with a coefficient of variation under the
// configured ceiling.
func (d *Detector) detectIntervals(events []model.TimelineEvent) []model.Pattern {
	bySubject := make(map[string][]model.TimelineEvent)
	var subjectOrder []string
	for _, ev := range events {
		if _, ok := bySubject[ev.SubjectID]; !ok {
			subjectOrder = append(subjectOrder, ev.SubjectID)
		}
		bySubject[ev.SubjectID] = append(bySubject[ev.SubjectID], ev)
	}

	var patterns []model.Pattern
	for _, subject := range subjectOrder {
		evs := bySubject[subject]
		if len(evs) < d.cfg.MinIntervalEvents {
			continue
		}
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Timestamp.Before(evs[j].Timestamp)
		})

		var intervals []time.Duration
		for i := 1; i < len(evs); i++ {
			intervals = append(intervals, evs[i].Timestamp.Sub(evs[i-1].Timestamp))
		}
		if len(intervals) < 2 || MeanInterval(intervals) <= 0 {
			continue
		}
		if variation(intervals) > d.cfg.IntervalCVMax {
			continue
		}

		ids := make([]string, len(evs))
		severities := make([]float64, len(evs))
		for i, ev := range evs {
			ids[i] = ev.SourceClaimID[0]
			severities[i] = ev.Importance
		}

		n := len(evs)
		patterns = append(patterns, model.Pattern{
			Kind:             model.PatternInterval,
			SubjectID:        subject,
			InstanceClaimIDs: ids,
			InstanceCount:    n,
			MeanInterval:     MeanInterval(intervals),
			Confidence:       Confidence(n, intervals),
			Trend:            TrendOf(intervals, severities, d.cfg.TrendShift),
			Description: fmt.Sprintf("%d events recurring every %s",
				n, humanDuration(MeanInterval(intervals))),
		})
	}
	return patterns
}

func humanDuration(d time.Duration) string {
	if d >= 24*time.Hour {
		days := float64(d) / float64(24*time.Hour)
		return fmt.Sprintf("%.1f days", days)
	}
	return d.Round(time.Minute).String()
}
