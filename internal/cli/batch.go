package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mnemo/internal/pipeline"
	"github.com/ppiankov/mnemo/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchFormat  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file-or-dir>",
	Short: "Digest multiple transcripts in parallel",
	Long: `Batch digests many transcripts concurrently:
- Read transcript paths from a list file (one per line), or take
  every transcript in a directory
- Digest them in parallel with a configurable worker count
- Write one snapshot per transcript to the output directory

Example:
  mnemo batch chats/
  mnemo batch transcripts.txt --concurrency 8 --output-dir ./snapshots
  mnemo batch chats/ --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./mnemo-snapshots", "output directory for snapshots")
	batchCmd.Flags().StringVar(&batchFormat, "format", pipeline.FormatMarkdown, "output format (json, markdown, brief, card, slack, resume)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in markdown output")
	batchCmd.Flags().IntVar(&budget, "budget", 0, "token budget per snapshot (0 = config default)")
	batchCmd.Flags().StringVar(&estimator, "estimator", "", "token estimator (heuristic, tiktoken)")
	batchCmd.Flags().BoolVar(&useNER, "ner", false, "use NER-based entity extraction")
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := digestConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(p, concurrency)

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	var results []*worker.DigestResult
	if info.IsDir() {
		results, err = processor.ProcessDir(ctx, input)
	} else {
		results, err = processor.ProcessFile(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("batch digest: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Digesting %d transcripts with %d workers\n", len(results), concurrency)

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", result.Path, result.Error)
			continue
		}
		successCount++

		outFile := filepath.Join(outputDir, snapshotFilename(result.Path, batchFormat))
		if err := p.Renderer().WriteFile(result.Snapshot, batchFormat, outFile); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: write snapshot: %v\n", result.Path, err)
			successCount--
			failureCount++
			continue
		}

		if verbose {
			p.Renderer().RenderSummary(result.Snapshot, os.Stderr)
		}
		fmt.Fprintf(os.Stderr, "ok   %s -> %s\n", result.Path, outFile)
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d ok, %d failed, output in %s\n", successCount, failureCount, outputDir)
	if failureCount > 0 {
		return fmt.Errorf("%d of %d transcripts failed", failureCount, len(results))
	}
	return nil
}

// snapshotFilename derives the output file name from the transcript
// path and format.
func snapshotFilename(path, format string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	ext := ".md"
	if format == pipeline.FormatJSON {
		ext = ".json"
	} else if format != pipeline.FormatMarkdown {
		ext = ".txt"
	}
	return base + ext
}
