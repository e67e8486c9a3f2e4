package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/ppiankov/mnemo/internal/compress"
	"github.com/ppiankov/mnemo/internal/extract"
	"github.com/ppiankov/mnemo/internal/llm"
	"github.com/ppiankov/mnemo/internal/model"
	"github.com/ppiankov/mnemo/internal/parse"
	"github.com/ppiankov/mnemo/internal/pattern"
	"github.com/ppiankov/mnemo/internal/score"
	"github.com/ppiankov/mnemo/internal/timeline"
)

// threadNamespace anchors deterministic thread IDs. Digesting the same
// transcript twice yields the same ID, so reruns are byte-identical.
var threadNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8") // uuid.NameSpaceDNS

// Pipeline orchestrates the complete digest process
type Pipeline struct {
	parser    *parse.Parser
	extractor *extract.Engine
	scorer    *score.Scorer
	builder   *timeline.Builder
	detector  *pattern.Detector
	comp      *compress.Compressor
	renderer  *Renderer
	refiner   *llm.Refiner // Optional LLM refiner (nil provider if disabled)
	config    *model.Config
}

// NewPipeline creates a pipeline from a validated configuration.
// Configuration problems surface here, before any stage runs.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	estimator, err := compress.NewEstimator(cfg.Compress)
	if err != nil {
		return nil, err
	}

	var entityExtractor extract.Extractor
	if cfg.Parse.UseNER {
		entityExtractor = extract.NewProseExtractor()
	}

	// Create LLM refiner if configured
	var refiner *llm.Refiner
	if cfg.LLM.Provider != "" {
		r, err := llm.NewRefiner(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			refiner = r
		}
	}

	return &Pipeline{
		parser:    parse.NewParser(cfg.Parse.TimestampTolerance),
		extractor: extract.NewEngine(entityExtractor, nil),
		scorer:    score.NewScorer(cfg.Weights),
		builder:   timeline.NewBuilder(nil, cfg.Timeline.PredicateThreshold, cfg.Timeline.ComparisonWindow),
		detector:  pattern.NewDetector(cfg.Pattern),
		comp:      compress.NewCompressor(estimator, cfg.Compress.Budget),
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		refiner:   refiner,
		config:    cfg,
	}, nil
}

// Digest parses a raw transcript and runs the full pipeline over it.
func (p *Pipeline) Digest(ctx context.Context, source, filename string) (*model.Snapshot, error) {
	parsed := p.parser.Parse(source, filename)
	snap, err := p.DigestTurns(ctx, parsed.Turns, parsed.Title)
	if err != nil {
		return nil, err
	}
	snap.Warnings = append(parsed.Warnings, snap.Warnings...)
	return snap, nil
}

// DigestHTML is Digest for HTML chat exports.
func (p *Pipeline) DigestHTML(ctx context.Context, source, filename string) (*model.Snapshot, error) {
	parsed := p.parser.ParseHTML(source, filename)
	snap, err := p.DigestTurns(ctx, parsed.Turns, parsed.Title)
	if err != nil {
		return nil, err
	}
	snap.Warnings = append(parsed.Warnings, snap.Warnings...)
	return snap, nil
}

// DigestTurns runs the staged pipeline over already-parsed turns.
// Each stage consumes the previous stage's output; degraded input
// degrades the affected stage only and lands in Warnings.
func (p *Pipeline) DigestTurns(ctx context.Context, turns []model.Turn, title string) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var warnings []string
	if len(turns) == 0 {
		warnings = append(warnings, "no turns found in input")
	}

	// 1. Extract entities and claims
	extracted := p.extractor.Extract(turns)
	warnings = append(warnings, extracted.Warnings...)

	// 2. Score turn importance
	scored := p.scorer.ScoreAll(turns, extracted.TurnEntities)

	// 3. Build timeline, detect supersessions
	built := p.builder.Build(extracted.Claims, scored)
	warnings = append(warnings, built.Warnings...)

	// 4. Detect patterns
	patterns := p.detector.Detect(extracted.Claims, built.Events, built.Supersessions)

	// 5. Assemble and compress
	first, last := extract.DateRange(turns)
	snap := model.Snapshot{
		ThreadID: threadID(title, turns),
		QuickFacts: model.QuickFacts{
			Title:       title,
			TurnCount:   len(turns),
			EntityCount: len(extracted.Entities),
			ClaimCount:  len(extracted.Claims),
			TopEntities: topEntities(extracted.Entities, 5),
			FirstSeen:   first,
			LastSeen:    last,
		},
		Timeline:       built.Events,
		Patterns:       patterns,
		Contradictions: built.Supersessions,
		CodeBlocks:     extract.CodeBlocks(turns),
		Warnings:       warnings,
	}

	compressed, err := p.comp.Compress(snap)
	if err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	return &compressed, nil
}

// Refine polishes the rendered brief of a snapshot. Returns nil when
// no LLM provider is configured. The snapshot is never modified.
func (p *Pipeline) Refine(ctx context.Context, snap *model.Snapshot) (*model.Refinement, error) {
	if p.refiner == nil || !p.refiner.IsEnabled() {
		return nil, nil
	}
	return p.refiner.Refine(ctx, p.renderer.RenderBrief(snap))
}

// Renderer exposes the pipeline's renderer for CLI output.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Entities re-runs entity extraction alone, for exports that resolve
// subject IDs into display names.
func (p *Pipeline) Entities(turns []model.Turn) []model.Entity {
	return p.extractor.Extract(turns).Entities
}

// threadID derives a stable UUID from the thread title and the first
// turn's text. Random IDs would break rerun determinism.
func threadID(title string, turns []model.Turn) string {
	seed := title
	if len(turns) > 0 {
		seed += "\x00" + turns[0].Text
	}
	if seed == "" {
		return ""
	}
	return uuid.NewSHA1(threadNamespace, []byte(seed)).String()
}

// topEntities returns up to n entity surface names, most-mentioned
// first, ties by first-seen order.
func topEntities(entities []model.Entity, n int) []string {
	ranked := make([]model.Entity, len(entities))
	copy(ranked, entities)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MentionCount > ranked[j].MentionCount
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, 0, len(ranked))
	for _, e := range ranked {
		names = append(names, e.SurfaceText)
	}
	return names
}
