package extract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/mnemo/internal/model"
)

// Output is the combined extraction result for a turn sequence
type Output struct {
	Entities []model.Entity
	Claims   []model.Claim
	// TurnEntities maps a turn ID to the distinct entity IDs it
	// mentions, in first-mention order. The scorer consumes this.
	TurnEntities map[string][]string
	Warnings     []string
}

// Engine runs entity and claim extraction over an ordered turn
// sequence. Same turns in, same entities/claims out: the engine holds
// no state between calls.
type Engine struct {
	extractor Extractor
	normal    Normalizer
	claims    *ClaimExtractor
}

// NewEngine creates an extraction engine. A nil extractor or normalizer
// selects the defaults.
func NewEngine(extractor Extractor, normal Normalizer) *Engine {
	if extractor == nil {
		extractor = NewRegexExtractor()
	}
	if normal == nil {
		normal = DefaultNormalizer{}
	}
	return &Engine{
		extractor: extractor,
		normal:    normal,
		claims:    NewClaimExtractor(),
	}
}

// Extract processes the turn sequence. Turns with no recognizable
// assertion contribute zero claims but still count toward entity
// mention totals; turns yielding nothing at all are noted as a soft
// warning, never an error.
func (e *Engine) Extract(turns []model.Turn) *Output {
	out := &Output{TurnEntities: make(map[string][]string)}

	byKey := make(map[string]*model.Entity)
	var order []string // normalized keys in first-seen order
	claimSeq := 0

	for _, turn := range turns {
		mentions := e.dedupe(e.extractor.Mentions(turn.Text))

		var turnEntityIDs []string
		for _, m := range mentions {
			key := e.normal.Normalize(m.Name)
			if key == "" {
				continue
			}
			ent, ok := byKey[key]
			if !ok {
				ent = &model.Entity{
					ID:            fmt.Sprintf("entity-%d", len(order)+1),
					Kind:          m.Kind,
					SurfaceText:   m.Name,
					NormalizedKey: key,
					FirstSeenTurn: turn.ID,
				}
				byKey[key] = ent
				order = append(order, key)
			}
			ent.MentionCount++
			turnEntityIDs = append(turnEntityIDs, ent.ID)
		}
		out.TurnEntities[turn.ID] = turnEntityIDs

		claims := e.extractClaims(turn, byKey)
		for i := range claims {
			claimSeq++
			claims[i].ID = fmt.Sprintf("claim-%d", claimSeq)
		}
		out.Claims = append(out.Claims, claims...)

		if strings.TrimSpace(turn.Text) != "" && len(turnEntityIDs) == 0 && len(claims) == 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("turn %d yielded no entities or claims", turn.Order))
		}
	}

	for _, key := range order {
		out.Entities = append(out.Entities, *byKey[key])
	}
	return out
}

// dedupe collapses mentions of the same entity within one turn, keeping
// the earliest occurrence. Kind is decided by the first mention.
func (e *Engine) dedupe(mentions []Mention) []Mention {
	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Position < mentions[j].Position
	})
	seen := make(map[string]bool)
	var result []Mention
	for _, m := range mentions {
		key := e.normal.Normalize(m.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, m)
	}
	return result
}

// extractClaims binds assertion sentences to subject entities. The
// subject is the earliest known entity mentioned in the sentence; a
// sentence naming no known entity produces no claim.
func (e *Engine) extractClaims(turn model.Turn, byKey map[string]*model.Entity) []model.Claim {
	var claims []model.Claim
	for _, cand := range e.claims.Candidates(turn.Text) {
		subject := e.bindSubject(cand.Sentence, byKey)
		if subject == nil {
			continue
		}
		claim := model.Claim{
			SubjectID:     subject.ID,
			PredicateText: cand.Sentence,
			SourceTurnID:  turn.ID,
			SourceOrder:   turn.Order,
			Polarity:      cand.Polarity,
			Heuristic:     cand.Heuristic,
		}
		if turn.Timestamp != nil {
			ts := *turn.Timestamp
			claim.AssertedAt = &ts
		}
		claims = append(claims, claim)
	}
	return claims
}

func (e *Engine) bindSubject(sentence string, byKey map[string]*model.Entity) *model.Entity {
	var best *model.Entity
	bestPos := -1
	for _, m := range e.extractor.Mentions(sentence) {
		key := e.normal.Normalize(m.Name)
		ent, ok := byKey[key]
		if !ok || ent.Kind == model.EntityDate {
			continue // dates anchor claims in time, they are not subjects
		}
		if bestPos < 0 || m.Position < bestPos {
			best = ent
			bestPos = m.Position
		}
	}
	return best
}

// DateRange returns the earliest and latest timestamps across turns,
// or nils when no turn is dated.
func DateRange(turns []model.Turn) (first, last *time.Time) {
	for i := range turns {
		ts := turns[i].Timestamp
		if ts == nil {
			continue
		}
		if first == nil || ts.Before(*first) {
			first = ts
		}
		if last == nil || ts.After(*last) {
			last = ts
		}
	}
	return first, last
}
