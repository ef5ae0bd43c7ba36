package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/observability"
)

// FileResult is the typed outcome of processing one input file. A failure
// carries its classified cause instead of being flattened into a log line.
type FileResult struct {
	Name     string
	Rows     int // records written
	Filtered int // dropped by the minimum-year filter
	Skipped  int // dropped by the skip-record miss policy
	Err      error
}

// OK reports whether the file was processed and written successfully.
func (r FileResult) OK() bool { return r.Err == nil }

// Progress is a point-in-time snapshot of a run's file counts.
type Progress struct {
	Total  int
	Done   int
	Failed int
}

// Runner fans a pipeline out over every CSV in an input directory with a
// bounded worker pool. Files are independent: a failure is recorded and the
// remaining files proceed.
type Runner struct {
	workers   int
	newDriver func() (*Driver, error)
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	total  atomic.Int64
	done   atomic.Int64
	failed atomic.Int64
}

// NewRunner creates a Runner. newDriver is invoked once per file so every
// worker loads its own reference tables and shares nothing.
func NewRunner(workers int, newDriver func() (*Driver, error), logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		workers:   workers,
		newDriver: newDriver,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the runner has completed at least one
// file, for the optional health endpoint.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no file has completed yet")
	}
	return nil
}

// Progress reports the run's file counts so far. Safe to call from other
// goroutines while Run is in flight.
func (r *Runner) Progress() Progress {
	return Progress{
		Total:  int(r.total.Load()),
		Done:   int(r.done.Load()),
		Failed: int(r.failed.Load()),
	}
}

// Run processes every *.csv under inputDir, writing augmented tables with
// the same file names into outputDir. It returns one FileResult per file in
// name order, and an error when the context was cancelled or any file
// failed.
func (r *Runner) Run(ctx context.Context, inputDir, outputDir string) ([]FileResult, error) {
	r.metrics.RunnerActive.Set(1)
	defer r.metrics.RunnerActive.Set(0)

	files, err := filepath.Glob(filepath.Join(inputDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list input files: %w", err)
	}
	sort.Strings(files)

	if len(files) == 0 {
		r.logger.Warn("no input files found", "input_dir", inputDir)
		return nil, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	r.total.Store(int64(len(files)))
	r.logger.Info("run started", "files", len(files), "workers", r.workers)

	results := make([]FileResult, len(files))
	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, path := range files {
		g.Go(func() error {
			results[i] = r.processOne(ctx, path, outputDir)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // per-file errors live in results

	succeeded := 0
	for _, res := range results {
		if res.OK() {
			succeeded++
		}
	}
	r.logger.Info("run complete", "succeeded", succeeded, "total", len(files))

	if err := ctx.Err(); err != nil {
		return results, err
	}
	if succeeded < len(files) {
		return results, fmt.Errorf("%d of %d files failed", len(files)-succeeded, len(files))
	}
	return results, nil
}

func (r *Runner) processOne(ctx context.Context, inPath, outputDir string) FileResult {
	name := filepath.Base(inPath)
	res := FileResult{Name: name}

	driver, err := r.newDriver()
	if err != nil {
		res.Err = err
	} else {
		outPath := filepath.Join(outputDir, name)
		res.Rows, res.Filtered, res.Skipped, res.Err = driver.ProcessFile(ctx, inPath, outPath)
	}

	if res.Err != nil {
		r.failed.Add(1)
		r.metrics.FilesFailed.Inc()
		r.logger.Error("file failed", "file", name, "error", res.Err)
		return res
	}

	r.done.Add(1)
	r.metrics.FilesProcessed.Inc()
	r.ready.Store(true)
	r.logger.Info("file completed", "file", name,
		"rows", res.Rows, "filtered", res.Filtered, "skipped", res.Skipped)
	return res
}
