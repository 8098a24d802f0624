// Package report renders benchmark runs, statistics and cross-provider
// comparisons as console tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"storagebench/benchmark"
	"storagebench/compare"
	"storagebench/db"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	bestColor   = color.New(color.FgGreen, color.Bold)
)

func rule(w io.Writer, n int) {
	fmt.Fprintln(w, strings.Repeat("=", n))
}

// PrintRuns renders the `list` table of recent benchmark sessions.
func PrintRuns(w io.Writer, runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No benchmark runs found")
		return
	}
	rule(w, 110)
	headerColor.Fprintln(w, "BENCHMARK RUNS")
	rule(w, 110)
	fmt.Fprintf(w, "%-6s | %-20s | %-20s | %-10s | %-8s | %-30s\n",
		"ID", "Timestamp", "Name", "Profile", "Workers", "Notes")
	rule(w, 110)
	for _, r := range runs {
		notes := r.Notes
		if notes == "" {
			notes = "-"
		}
		fmt.Fprintf(w, "%-6d | %-20s | %-20s | %-10s | %-8d | %-30s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Name, r.Profile, r.Workers, notes)
	}
	rule(w, 110)
}

// PrintRunResults renders the `show` table for one run.
func PrintRunResults(w io.Writer, runID int64, results []db.StoredResult) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No results found for run %d\n", runID)
		return
	}
	rule(w, 130)
	headerColor.Fprintf(w, "BENCHMARK RESULTS - Run #%d\n", runID)
	rule(w, 130)
	fmt.Fprintf(w, "%-15s | %-14s | %8s | %6s | %15s | %10s | %12s | %10s\n",
		"Provider", "Operation", "Size", "Count", "Throughput", "IOPS", "Avg Latency", "Variance")
	rule(w, 130)
	for _, r := range results {
		variance := "N/A"
		if r.VariancePct > 0 {
			variance = fmt.Sprintf("±%.1f%%", r.VariancePct)
		}
		fmt.Fprintf(w, "%-15s | %-14s | %8s | %6d | %10.2f MB/s | %10.2f | %10.2f ms | %10s\n",
			r.Provider, r.Operation, benchmark.FormatSize(r.ObjectSize), r.ObjectCount,
			r.ThroughputMBps, r.OpsPerSec, r.AvgLatencyMs, variance)
	}
	rule(w, 130)
}

// PrintStats renders the aggregate per-provider statistics table.
func PrintStats(w io.Writer, stats []db.ProviderStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No statistics available")
		return
	}
	rule(w, 130)
	headerColor.Fprintln(w, "PROVIDER STATISTICS")
	rule(w, 130)
	fmt.Fprintf(w, "%-15s | %6s | %6s | %15s | %15s | %12s | %12s\n",
		"Provider", "Runs", "Tests", "Avg Throughput", "Max Throughput", "Avg IOPS", "Avg Latency")
	rule(w, 130)
	for _, st := range stats {
		fmt.Fprintf(w, "%-15s | %6d | %6d | %10.2f MB/s | %10.2f MB/s | %12.2f | %10.2f ms\n",
			st.Provider, st.RunCount, st.TestCount,
			st.AvgThroughput, st.MaxThroughput, st.AvgIOPS, st.AvgLatency)
	}
	rule(w, 130)
}

// PrintComparison renders the full cross-provider comparison: missing-cell
// warnings, per-cell rankings and the composite score summary.
func PrintComparison(w io.Writer, c *compare.Comparison) {
	rule(w, 130)
	headerColor.Fprintln(w, "PROVIDER PERFORMANCE COMPARISON")
	rule(w, 130)

	printMissing(w, c.Missing)

	currentOp := ""
	for _, cell := range c.Cells {
		if cell.Cell.Operation != currentOp {
			currentOp = cell.Cell.Operation
			fmt.Fprintf(w, "\n%s\n", opDisplayName(currentOp))
			fmt.Fprintln(w, strings.Repeat("-", 130))
		}
		fmt.Fprintf(w, "\n  Object Size: %s\n", benchmark.FormatSize(cell.Cell.ObjectSize))
		fmt.Fprintf(w, "  %-15s | %15s | %12s | %12s | %12s | %6s\n",
			"Provider", "Throughput", "IOPS", "Latency", "vs Best", "")
		fmt.Fprintln(w, "  "+strings.Repeat("-", 126))

		for _, e := range cell.Entries {
			diff := "baseline"
			mark := ""
			if e.Best {
				mark = bestColor.Sprint("BEST")
			} else {
				diff = fmt.Sprintf("%+.1f%%", e.DiffPct)
			}
			fmt.Fprintf(w, "  %-15s | %10.2f MB/s | %12.2f | %10.2f ms | %12s | %6s\n",
				e.Provider, e.Result.ThroughputMBps, e.Result.OpsPerSec,
				e.Result.AvgLatencyMs, diff, mark)
		}
	}

	fmt.Fprintln(w)
	rule(w, 130)
	printScores(w, c.Scores)
	rule(w, 130)
}

func printMissing(w io.Writer, missing map[compare.Cell][]string) {
	if len(missing) == 0 {
		return
	}
	cells := make([]compare.Cell, 0, len(missing))
	for cell := range missing {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Operation != cells[j].Operation {
			return cells[i].Operation < cells[j].Operation
		}
		return cells[i].ObjectSize < cells[j].ObjectSize
	})

	fmt.Fprintln(w, "\nNOTE: Some providers are missing test results:")
	for _, cell := range cells {
		fmt.Fprintf(w, "   * %s @ %s: %s not tested\n",
			cell.Operation, benchmark.FormatSize(cell.ObjectSize), strings.Join(missing[cell], ", "))
	}
	fmt.Fprintln(w, "\n   Run benchmarks on all providers to get complete comparison data.")
	rule(w, 130)
}

func printScores(w io.Writer, scores []compare.Score) {
	if len(scores) == 0 {
		return
	}
	headerColor.Fprintln(w, "OVERALL PERFORMANCE SUMMARY")
	fmt.Fprintln(w, strings.Repeat("-", 130))
	fmt.Fprintf(w, "%-15s | %15s | %15s | %15s | %15s | %10s | %6s\n",
		"Provider", "Seq Write", "Par Write", "Seq Read", "Par Read", "Score", "")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	bestScore := scores[0].Score
	for _, sc := range scores {
		mark := ""
		if sc.Score == bestScore {
			mark = bestColor.Sprint("BEST")
		}
		fmt.Fprintf(w, "%-15s | %13s/s | %13s/s | %13s/s | %13s/s | %6.1f/100 | %6s\n",
			sc.Provider,
			opThroughput(sc, benchmark.OpWrite),
			opThroughput(sc, benchmark.OpWriteParallel),
			opThroughput(sc, benchmark.OpRead),
			opThroughput(sc, benchmark.OpReadParallel),
			sc.Score, mark)
	}

	winner := scores[0]
	fmt.Fprintf(w, "\nOVERALL WINNER: %s (Score: %.1f/100)\n",
		strings.ToUpper(winner.Provider), winner.Score)
	printInsights(w, scores)
}

// printInsights names the operations each provider leads.
func printInsights(w io.Writer, scores []compare.Score) {
	if len(scores) < 2 {
		return
	}
	best := map[string]float64{}
	for _, sc := range scores {
		for op, v := range sc.OpThroughput {
			if v > best[op] {
				best[op] = v
			}
		}
	}

	fmt.Fprintln(w, "\nPERFORMANCE INSIGHTS:")
	for _, sc := range scores {
		var leads []string
		for _, op := range benchmark.CanonicalOps {
			if v, ok := sc.OpThroughput[op]; ok && v >= best[op] && best[op] > 0 {
				leads = append(leads, opDisplayName(op))
			}
		}
		if len(leads) > 0 {
			fmt.Fprintf(w, "   * %s excels at: %s\n", sc.Provider, strings.Join(leads, ", "))
		}
	}
}

func opThroughput(sc compare.Score, op string) string {
	if v, ok := sc.OpThroughput[op]; ok {
		return fmt.Sprintf("%.1f MB", v)
	}
	return "N/A"
}

func opDisplayName(op string) string {
	switch op {
	case benchmark.OpWrite:
		return "SEQUENTIAL WRITE"
	case benchmark.OpWriteParallel:
		return "PARALLEL WRITE"
	case benchmark.OpRead:
		return "SEQUENTIAL READ"
	case benchmark.OpReadParallel:
		return "PARALLEL READ"
	}
	return op
}
