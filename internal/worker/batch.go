package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/mnemo/internal/model"
)

// Digester digests a single transcript into a snapshot
type Digester interface {
	Digest(ctx context.Context, source, filename string) (*model.Snapshot, error)
	DigestHTML(ctx context.Context, source, filename string) (*model.Snapshot, error)
}

// DigestJob digests one transcript file
type DigestJob struct {
	Path     string
	Digester Digester
}

// Execute implements Job
func (j *DigestJob) Execute(ctx context.Context) Result {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return &DigestResult{Path: j.Path, Error: fmt.Errorf("read transcript: %w", err)}
	}

	var snap *model.Snapshot
	if isHTML(j.Path) {
		snap, err = j.Digester.DigestHTML(ctx, string(data), filepath.Base(j.Path))
	} else {
		snap, err = j.Digester.Digest(ctx, string(data), filepath.Base(j.Path))
	}
	if err != nil {
		return &DigestResult{Path: j.Path, Error: err}
	}
	return &DigestResult{Path: j.Path, Snapshot: snap}
}

// DigestResult is the outcome of one transcript digest
type DigestResult struct {
	Path     string
	Snapshot *model.Snapshot
	Error    error
}

// GetError implements Result
func (r *DigestResult) GetError() error {
	return r.Error
}

// BatchProcessor digests many transcripts concurrently
type BatchProcessor struct {
	digester    Digester
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(digester Digester, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		digester:    digester,
		concurrency: concurrency,
	}
}

// ProcessPaths digests the given transcript files concurrently.
// Results come back in completion order; each carries its path.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*DigestResult {
	if len(paths) == 0 {
		return []*DigestResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&DigestJob{
			Path:     path,
			Digester: b.digester,
		})
	}

	results := pool.Wait()

	digestResults := make([]*DigestResult, len(results))
	for i, result := range results {
		digestResults[i] = result.(*DigestResult)
	}
	return digestResults
}

// ProcessFile reads transcript paths from a list file (one per line)
// and digests them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*DigestResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read path list: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ProcessDir digests every transcript file in a directory
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string) ([]*DigestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".md", ".markdown", ".txt", ".html", ".htm":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads transcript paths from a file (one per line)
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}
