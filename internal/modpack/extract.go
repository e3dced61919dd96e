package modpack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/sqpack-tools/internal/config"
	"github.com/Faultbox/sqpack-tools/internal/logger"
)

// ErrUnsafePath is returned for entries whose path would land outside the
// output directory.
var ErrUnsafePath = errors.New("unsafe output path")

// Status is the outcome of extracting a single entry.
type Status int

const (
	StatusExtracted Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusExtracted:
		return "extracted"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result describes one extracted entry.
type Result struct {
	Entry    ModEntry
	Output   string
	Size     int
	Checksum uint64 // xxhash64 of the decoded bytes, zero when disabled
	Status   Status
	Err      error
}

// Summary collects the results of a batch extraction in mod list order.
type Summary struct {
	Extracted int
	Skipped   int
	Failed    int
	Results   []Result
}

// Extractor writes every entry of a pack below OutputDir.
type Extractor struct {
	OutputDir string
	Workers   int
	Overwrite bool
	Checksums bool
}

// NewExtractor creates an extractor from the extract settings.
func NewExtractor(cfg config.ExtractConfig) *Extractor {
	return &Extractor{
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
		Overwrite: cfg.Overwrite,
		Checksums: cfg.Checksums,
	}
}

type extractJob struct {
	index int
	entry ModEntry
}

// Extract decodes all entries of p with a pool of workers. Failed entries are
// logged and recorded, they do not stop the batch. The returned error is
// non-nil only when the batch could not run or ctx was cancelled.
func (e *Extractor) Extract(ctx context.Context, p *Pack) (*Summary, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	entries := p.Entries()
	results := make([]Result, len(entries))

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan extractJob, workers*2)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for job := range jobs {
			results[job.index] = e.extractEntry(p, job.entry)
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

	// Later duplicates of a path would race the first writer.
	seen := make(map[string]bool, len(entries))
	var cancelled error
	for i, entry := range entries {
		key := NormalizePath(entry.FullPath)
		if seen[key] {
			results[i] = Result{Entry: entry, Status: StatusSkipped}
			continue
		}
		seen[key] = true

		if cancelled == nil {
			cancelled = ctx.Err()
		}
		if cancelled == nil {
			select {
			case jobs <- extractJob{index: i, entry: entry}:
				continue
			case <-ctx.Done():
				cancelled = ctx.Err()
			}
		}
		results[i] = Result{Entry: entry, Status: StatusFailed, Err: cancelled}
	}
	close(jobs)
	wg.Wait()

	summary := &Summary{Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusExtracted:
			summary.Extracted++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}

	logger.Info("extraction finished",
		zap.Int("extracted", summary.Extracted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	if cancelled != nil {
		return summary, cancelled
	}
	return summary, nil
}

func (e *Extractor) extractEntry(p *Pack, entry ModEntry) Result {
	result := Result{Entry: entry}

	output, err := e.outputPath(entry.FullPath)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		logger.Warn("rejected entry", logger.Path(entry.FullPath), zap.Error(err))
		return result
	}
	result.Output = output

	if !e.Overwrite {
		if _, err := os.Stat(output); err == nil {
			result.Status = StatusSkipped
			logger.Debug("already extracted", logger.Path(entry.FullPath))
			return result
		}
	}

	data, err := p.Archive().ReadFile(entry.ModOffset)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		logger.Warn("failed to decode entry",
			logger.Path(entry.FullPath),
			logger.Offset(entry.ModOffset),
			zap.Error(err),
		)
		return result
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("creating directory: %w", err)
		return result
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("writing %s: %w", output, err)
		return result
	}

	result.Size = len(data)
	if e.Checksums {
		result.Checksum = xxhash.Sum64(data)
	}
	result.Status = StatusExtracted

	fields := []zap.Field{
		logger.Path(entry.FullPath),
		logger.Offset(entry.ModOffset),
		zap.Int("size", len(data)),
	}
	if e.Checksums {
		fields = append(fields, zap.String("xxhash", fmt.Sprintf("%016x", result.Checksum)))
	}
	logger.Debug("extracted entry", fields...)
	return result
}

func (e *Extractor) outputPath(fullPath string) (string, error) {
	rel := filepath.FromSlash(NormalizePath(fullPath))
	if rel == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, fullPath)
	}
	return filepath.Join(e.OutputDir, rel), nil
}
