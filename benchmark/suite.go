package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"storagebench/progress"
	"storagebench/storage"
)

// SizeSpec is one workload shape of the test matrix.
type SizeSpec struct {
	ObjectSize  int64
	ObjectCount int
}

// ProfileSizes returns the test matrix for a named workload profile. An
// unknown profile falls back to the default matrix.
func ProfileSizes(profile string) []SizeSpec {
	quick := []SizeSpec{
		{1024, 100},
		{10 * 1024, 50},
		{100 * 1024, 20},
	}
	switch profile {
	case "quick":
		return quick
	case "full":
		return append(quick,
			SizeSpec{1024 * 1024, 10},
			SizeSpec{10 * 1024 * 1024, 5},
			SizeSpec{100 * 1024 * 1024, 2},
		)
	default:
		return append(quick, SizeSpec{1024 * 1024, 10})
	}
}

// ResultSink receives each summary result as it is produced. The SQLite
// store implements it; the suite itself has no dependency on how results are
// persisted.
type ResultSink interface {
	AddResult(providerName, providerType string, r Result) error
}

// SuiteOptions configures one provider's benchmark suite.
type SuiteOptions struct {
	ProviderName string
	ProviderType string
	Prefix       string
	Workers      int
	Repeats      int
	// RateLimit caps aggregate operations per second. Zero means unlimited.
	RateLimit int
	// Cleanup deletes the generated test objects after the suite when the
	// backend supports deletion.
	Cleanup      bool
	Sizes        []SizeSpec
	ShowProgress bool
	Out          io.Writer
	Logger       *slog.Logger
	Sink         ResultSink
}

// RunSuite runs the full (size, count) matrix against one backend: for every
// cell a sequential write, parallel write, sequential read and parallel read
// trial, each repeated and folded by RunRepeated. Summaries stream to the
// sink as they complete. The first failing trial aborts the suite and its
// partial results are discarded. Cancellation is honored between trials.
func RunSuite(ctx context.Context, backend storage.Backend, opts SuiteOptions) ([]Result, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	repeats := opts.Repeats
	if repeats < 1 {
		repeats = 1
	}

	runner := &Runner{
		Backend: backend,
		Prefix:  opts.Prefix,
		Workers: opts.Workers,
	}
	if opts.RateLimit > 0 {
		// A small burst smooths the limiter under a wide worker pool.
		runner.Limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 10)
	}

	trials := []struct {
		op  string
		run func(ctx context.Context, size int64, count int) (Result, error)
	}{
		{OpWrite, runner.WriteSequential},
		{OpWriteParallel, runner.WriteParallel},
		{OpRead, runner.ReadSequential},
		{OpReadParallel, runner.ReadParallel},
	}

	var results []Result
	for _, spec := range opts.Sizes {
		for _, t := range trials {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			var bar *progress.Bar
			if opts.ShowProgress {
				bar = progress.NewBar(int64(spec.ObjectCount * repeats))
				bar.SetCaption(fmt.Sprintf("%s %s", t.op, FormatSize(spec.ObjectSize)))
				runner.Tick = func() { bar.Increment() }
			}

			trial := func(ctx context.Context) (Result, error) {
				return t.run(ctx, spec.ObjectSize, spec.ObjectCount)
			}
			summary, err := RunRepeated(ctx, repeats, trial, func(i int, r Result) {
				logger.Debug("repeat finished",
					"provider", opts.ProviderName, "operation", t.op,
					"repeat", i+1, "of", repeats, "throughput_mbps", r.ThroughputMBps)
			})
			if bar != nil {
				bar.Finish()
				runner.Tick = nil
			}
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", t.op, FormatSize(spec.ObjectSize), err)
			}

			fmt.Fprintln(out, summary)
			if opts.Sink != nil {
				if err := opts.Sink.AddResult(opts.ProviderName, opts.ProviderType, summary); err != nil {
					return nil, fmt.Errorf("persisting %s result: %w", t.op, err)
				}
			}
			results = append(results, summary)
		}
	}

	if opts.Cleanup {
		cleanupSuite(ctx, backend, opts.Prefix, out)
	}
	return results, nil
}

// cleanupSuite removes the generated test objects when the backend supports
// deletion. Failures here never fail the suite.
func cleanupSuite(ctx context.Context, backend storage.Backend, prefix string, out io.Writer) {
	cleaner, ok := backend.(storage.Cleaner)
	if !ok {
		return
	}
	fmt.Fprintf(out, "\nCleaning up test objects under %s/\n", prefix)
	if deleted := cleaner.DeletePrefix(ctx, prefix+"/"); deleted > 0 {
		fmt.Fprintf(out, "Deleted %d test objects\n", deleted)
	}
}
