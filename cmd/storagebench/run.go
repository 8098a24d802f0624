package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storagebench/benchmark"
	"storagebench/compare"
	"storagebench/config"
	"storagebench/db"
	"storagebench/report"
)

var (
	runProviders []string
	runName      string
	runNotes     string
	runPrefix    string
	runWorkers   int
	runRepeats   int
	runRateLimit int
	runQuick     bool
	runFull      bool
	runCompare   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run benchmarks against the configured providers",
	RunE:  runBenchmarks,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayVarP(&runProviders, "provider", "p", nil, "provider(s) to benchmark (default: all enabled)")
	runCmd.Flags().StringVarP(&runName, "name", "n", "", "name for this benchmark run")
	runCmd.Flags().StringVar(&runNotes, "notes", "", "notes about this run")
	runCmd.Flags().StringVar(&runPrefix, "prefix", "", "prefix for test objects (default: from config)")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "number of parallel workers (default: from config)")
	runCmd.Flags().IntVarP(&runRepeats, "repeats", "r", 0, "times to repeat each trial, results are averaged (default: from config)")
	runCmd.Flags().IntVar(&runRateLimit, "rate-limit", 0, "max operations per second, 0 means unlimited")
	runCmd.Flags().BoolVar(&runQuick, "quick", false, "quick profile: small objects only")
	runCmd.Flags().BoolVar(&runFull, "full", false, "full profile: up to 100MB objects")
	runCmd.Flags().BoolVarP(&runCompare, "compare", "c", true, "show provider comparison after the run")
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	providers, err := resolveProviders(cfg, runProviders)
	if err != nil {
		return err
	}

	profile := "default"
	switch {
	case runQuick && runFull:
		return fmt.Errorf("--quick and --full are mutually exclusive")
	case runQuick:
		profile = "quick"
	case runFull:
		profile = "full"
	}
	sizes := benchmark.ProfileSizes(profile)

	workers := runWorkers
	if workers <= 0 {
		workers = cfg.Benchmark.DefaultWorkers
	}
	repeats := runRepeats
	if repeats <= 0 {
		repeats = cfg.Benchmark.RunsPerTest
	}
	prefix := runPrefix
	if prefix == "" {
		prefix = cfg.Benchmark.TestPrefix
	}

	if err := benchmark.SetMaxResources(); err != nil {
		slog.Warn("could not raise resource limits", "error", err)
	}

	store, err := db.Open(cfg.Benchmark.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.CreateRun(runName, profile, workers, runNotes)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name)
	}
	fmt.Fprintln(out, strings.Repeat("=", 110))
	fmt.Fprintf(out, "STORAGE BENCHMARK\nRun ID: %d\nProfile: %s\nWorkers: %d\nRepeats per trial: %d\nProviders: %s\n",
		runID, profile, workers, repeats, strings.Join(names, ", "))
	fmt.Fprintln(out, strings.Repeat("=", 110))

	var all []compare.ProviderResults
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return err
		}
		results, err := runProvider(ctx, p, cfg, suiteParams{
			prefix: prefix, workers: workers, repeats: repeats,
			rateLimit: runRateLimit, sizes: sizes,
			sink: store.Sink(runID),
		}, out)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			// One broken provider must not end the session; its partial
			// results are dropped from the comparison.
			fmt.Fprintf(os.Stderr, "\nError benchmarking %s: %v\n", p.Name, err)
			continue
		}
		all = append(all, compare.ProviderResults{ProviderName: p.Name, Results: results})
	}

	if len(all) > 1 && runCompare {
		report.PrintComparison(out, compare.Compare(all))
	}
	fmt.Fprintf(out, "\nResults saved to database (run_id: %d)\n", runID)

	if len(all) == 0 {
		return fmt.Errorf("no provider completed its benchmark suite")
	}
	return nil
}

type suiteParams struct {
	prefix    string
	workers   int
	repeats   int
	rateLimit int
	sizes     []benchmark.SizeSpec
	sink      benchmark.ResultSink
}

func runProvider(ctx context.Context, p config.ProviderConfig, cfg *config.Config, params suiteParams, out io.Writer) ([]benchmark.Result, error) {
	backend, err := newBackend(ctx, p, cfg)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "\n%s\nBENCHMARKING: %s\nStorage: %s\nRunning each trial %d time(s)\n%s\n",
		strings.Repeat("=", 110), p.Name, backend.Name(), params.repeats, strings.Repeat("=", 110))

	return benchmark.RunSuite(ctx, backend, benchmark.SuiteOptions{
		ProviderName: p.Name,
		ProviderType: p.Type,
		Prefix:       params.prefix,
		Workers:      params.workers,
		Repeats:      params.repeats,
		RateLimit:    params.rateLimit,
		Cleanup:      cfg.Benchmark.CleanupAfter,
		Sizes:        params.sizes,
		ShowProgress: true,
		Out:          out,
		Sink:         params.sink,
	})
}
