package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mnemo/internal/chronicle"
	"github.com/ppiankov/mnemo/internal/model"
	"github.com/ppiankov/mnemo/internal/pipeline"
	"github.com/ppiankov/mnemo/internal/store"
)

var (
	csvPath      string
	exportThread string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [transcript]",
	Short: "Export snapshot findings as chronicle CSV",
	Long: `Export flattens a snapshot into generic chronicle rows
(title, description, timestamp, category, actor, tags, evidence_refs)
and writes them as CSV, one row per timeline event, contradiction,
and pattern.

Works from a transcript file or from a stored thread.

Example:
  mnemo export chat.md --csv chronicle.csv
  mnemo export --thread 6ba7b810-9dad-11d1-80b4-00c04fd430c8 --csv chronicle.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&csvPath, "csv", "chronicle.csv", "output CSV path")
	exportCmd.Flags().StringVar(&exportThread, "thread", "", "export a stored thread instead of a transcript")
	exportCmd.Flags().BoolVar(&useNER, "ner", false, "use NER-based entity extraction")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := digestConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	var snap *model.Snapshot
	var turns []model.Turn

	switch {
	case exportThread != "":
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		rec, err := s.Load(exportThread)
		if err != nil {
			return err
		}
		snap, turns = &rec.Snapshot, rec.Turns

	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}
		parsed := parseTranscript(cfg, string(data), args[0])
		snap, err = p.DigestTurns(ctx, parsed.Turns, parsed.Title)
		if err != nil {
			return fmt.Errorf("digest failed: %w", err)
		}
		turns = parsed.Turns

	default:
		return fmt.Errorf("provide a transcript file or --thread")
	}

	entities := p.Entities(turns)
	if err := chronicle.WriteFile(csvPath, snap, entities); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	rows := len(snap.Timeline) + len(snap.Contradictions) + len(snap.Patterns)
	fmt.Fprintf(os.Stderr, "Exported %d rows to %s\n", rows, csvPath)
	return nil
}
