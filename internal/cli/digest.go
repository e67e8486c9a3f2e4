package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mnemo/internal/llm"
	"github.com/ppiankov/mnemo/internal/model"
	"github.com/ppiankov/mnemo/internal/parse"
	"github.com/ppiankov/mnemo/internal/pipeline"
	"github.com/ppiankov/mnemo/internal/store"
)

var (
	outPath      string
	format       string
	budget       int
	estimator    string
	useNER       bool
	noFooter     bool
	saveThread   bool
	updateThread string
	timeout      time.Duration
	llmEnabled   bool
	llmProvider  string
	llmModel     string
)

// digestCmd represents the digest command
var digestCmd = &cobra.Command{
	Use:   "digest <transcript>",
	Short: "Digest a conversation transcript into a memory snapshot",
	Long: `Digest parses a transcript (markdown, plain text, or HTML export),
extracts entities and claims, scores turn importance, builds a
timeline with contradiction detection, finds recurring patterns,
and compresses the result into a token budget.

Example:
  mnemo digest chat.md
  mnemo digest chat.md --format json --out snapshot.json
  mnemo digest chat.md --budget 1000 --estimator tiktoken
  mnemo digest followup.md --update 6ba7b810-9dad-11d1-80b4-00c04fd430c8
  mnemo digest chat.md --llm ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)

	// Output flags
	digestCmd.Flags().StringVar(&format, "format", pipeline.FormatMarkdown, "output format (json, markdown, brief, card, slack, resume)")
	digestCmd.Flags().StringVar(&outPath, "out", "", "output path (default: stdout)")
	digestCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in markdown output")

	// Pipeline flags
	digestCmd.Flags().IntVar(&budget, "budget", 0, "token budget for the snapshot (0 = config default)")
	digestCmd.Flags().StringVar(&estimator, "estimator", "", "token estimator (heuristic, tiktoken)")
	digestCmd.Flags().BoolVar(&useNER, "ner", false, "use NER-based entity extraction")
	digestCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall digest timeout")

	// Store flags
	digestCmd.Flags().BoolVar(&saveThread, "save", false, "save the thread to the local store")
	digestCmd.Flags().StringVar(&updateThread, "update", "", "update a stored thread with new turns (thread ID)")

	// LLM flags
	digestCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM brief refinement")
	digestCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	digestCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runDigest(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := digestConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	parsed := parseTranscript(cfg, string(data), path)
	if verbose {
		fmt.Fprintf(os.Stderr, "Parsed %d turns from %s\n", len(parsed.Turns), path)
	}

	var snap *model.Snapshot
	var history []model.Turn
	if updateThread != "" {
		snap, history, err = runUpdate(ctx, p, cfg, parsed.Turns)
		if err != nil {
			return err
		}
	} else {
		snap, err = p.DigestTurns(ctx, parsed.Turns, parsed.Title)
		if err != nil {
			return fmt.Errorf("digest failed: %w", err)
		}
		snap.Warnings = append(parsed.Warnings, snap.Warnings...)
		history = parsed.Turns
	}

	if verbose {
		p.Renderer().RenderSummary(snap, os.Stderr)
	}

	content, err := p.Renderer().Render(snap, format)
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s: %s\n", format, outPath)
		}
	} else {
		fmt.Print(content)
	}

	// Refinement runs after the snapshot is final and never alters it
	refinement, err := p.Refine(ctx, snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: refinement failed: %v\n", err)
	} else if refinement != nil && refinement.Enabled {
		writeRefinement(refinement)
	}

	if saveThread || updateThread != "" {
		if err := saveRecord(cfg, snap, history); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Saved thread %s\n", snap.ThreadID)
		}
	}
	return nil
}

// runUpdate digests stored history plus the new turns and prints what
// changed.
func runUpdate(ctx context.Context, p *pipeline.Pipeline, cfg *model.Config, fresh []model.Turn) (*model.Snapshot, []model.Turn, error) {
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.Load(updateThread)
	if err != nil {
		return nil, nil, err
	}

	snap, diff, err := p.Update(ctx, &rec.Snapshot, rec.Turns, fresh)
	if err != nil {
		return nil, nil, fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprint(os.Stderr, p.Renderer().RenderDiff(diff))

	history := make([]model.Turn, 0, len(rec.Turns)+len(fresh))
	history = append(history, rec.Turns...)
	for i, turn := range fresh {
		turn.Order = len(rec.Turns) + i + 1
		turn.ID = fmt.Sprintf("turn-%d", turn.Order)
		history = append(history, turn)
	}
	return snap, history, nil
}

func saveRecord(cfg *model.Config, snap *model.Snapshot, turns []model.Turn) error {
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	return s.Save(&store.Record{
		ThreadID: snap.ThreadID,
		Title:    snap.QuickFacts.Title,
		Turns:    turns,
		Snapshot: *snap,
	})
}

func writeRefinement(refinement *model.Refinement) {
	md := llm.RenderMarkdown(refinement)
	if md == "" {
		return
	}
	if outPath != "" {
		llmPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".llm.md"
		if err := os.WriteFile(llmPath, []byte(md), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write refined brief: %v\n", err)
			return
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote refined brief: %s\n", llmPath)
		}
		return
	}
	fmt.Println()
	fmt.Print(md)
}

// digestConfig merges flags over the loaded configuration
func digestConfig() (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if budget > 0 {
		cfg.Compress.Budget = budget
	}
	if estimator != "" {
		cfg.Compress.Estimator = estimator
	}
	if useNER {
		cfg.Parse.UseNER = true
	}
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}
	return cfg, nil
}

// parseTranscript picks the parser by file extension
func parseTranscript(cfg *model.Config, source, path string) *parse.Result {
	parser := parse.NewParser(cfg.Parse.TimestampTolerance)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return parser.ParseHTML(source, filepath.Base(path))
	default:
		return parser.Parse(source, filepath.Base(path))
	}
}
