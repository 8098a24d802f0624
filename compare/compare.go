// Package compare aligns benchmark results from multiple providers, ranks
// them per test cell and computes a normalized composite score.
package compare

import (
	"sort"

	"storagebench/benchmark"
)

// ProviderResults groups one provider's ordered results for comparison.
type ProviderResults struct {
	ProviderName string
	Results      []benchmark.Result
}

// Cell identifies a test cell: results from different providers align when
// both operation and object size match.
type Cell struct {
	Operation  string
	ObjectSize int64
}

// Entry is one provider's ranked standing within a cell.
type Entry struct {
	Provider string
	Result   benchmark.Result
	// DiffPct is the percentage deviation from the best provider's
	// throughput in this cell; zero for the best provider itself.
	DiffPct float64
	Best    bool
}

// CellComparison ranks all providers reporting one cell, best first.
type CellComparison struct {
	Cell    Cell
	Entries []Entry
}

// Score is a provider's composite standing: for each canonical operation
// present in the best-value set, (provider throughput / best throughput)
// contributes up to 25 points, so tying the best everywhere scores 100.
type Score struct {
	Provider string
	Score    float64
	// OpThroughput holds the provider's mean throughput per canonical
	// operation, for the summary table. Operations the provider never ran
	// are absent.
	OpThroughput map[string]float64
}

// Comparison is the full cross-provider analysis.
type Comparison struct {
	// Cells lists every cell at least two providers reported, ordered by
	// operation then object size. Cells with a single reporter are excluded
	// from ranking but still show up in Missing.
	Cells []CellComparison
	// Missing maps each cell some provider lacks to the providers lacking
	// it. A missing cell is reported, never silently treated as zero.
	Missing map[Cell][]string
	// Scores holds the composite scores, best first.
	Scores []Score
}

// Compare builds the full comparison for a set of provider results.
func Compare(providers []ProviderResults) *Comparison {
	grouped := groupByCell(providers)

	cells := make([]Cell, 0, len(grouped))
	for cell := range grouped {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		if a, b := opOrder(cells[i].Operation), opOrder(cells[j].Operation); a != b {
			return a < b
		}
		return cells[i].ObjectSize < cells[j].ObjectSize
	})

	c := &Comparison{Missing: MissingCells(providers)}
	for _, cell := range cells {
		byProvider := grouped[cell]
		if len(byProvider) < 2 {
			continue
		}
		c.Cells = append(c.Cells, rankCell(cell, byProvider))
	}
	c.Scores = composeScores(providers)
	return c
}

// MissingCells finds cells reported by some providers but not others.
func MissingCells(providers []ProviderResults) map[Cell][]string {
	all := map[Cell]bool{}
	perProvider := map[string]map[Cell]bool{}
	for _, pr := range providers {
		cells := map[Cell]bool{}
		for _, r := range pr.Results {
			cell := Cell{Operation: r.Operation, ObjectSize: r.ObjectSize}
			all[cell] = true
			cells[cell] = true
		}
		perProvider[pr.ProviderName] = cells
	}

	missing := map[Cell][]string{}
	for cell := range all {
		for _, pr := range providers {
			if !perProvider[pr.ProviderName][cell] {
				missing[cell] = append(missing[cell], pr.ProviderName)
			}
		}
	}
	for _, names := range missing {
		sort.Strings(names)
	}
	return missing
}

func groupByCell(providers []ProviderResults) map[Cell]map[string]benchmark.Result {
	grouped := map[Cell]map[string]benchmark.Result{}
	for _, pr := range providers {
		for _, r := range pr.Results {
			cell := Cell{Operation: r.Operation, ObjectSize: r.ObjectSize}
			if grouped[cell] == nil {
				grouped[cell] = map[string]benchmark.Result{}
			}
			grouped[cell][pr.ProviderName] = r
		}
	}
	return grouped
}

func rankCell(cell Cell, byProvider map[string]benchmark.Result) CellComparison {
	entries := make([]Entry, 0, len(byProvider))
	for name, r := range byProvider {
		entries = append(entries, Entry{Provider: name, Result: r})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Result.ThroughputMBps != entries[j].Result.ThroughputMBps {
			return entries[i].Result.ThroughputMBps > entries[j].Result.ThroughputMBps
		}
		return entries[i].Provider < entries[j].Provider
	})

	best := entries[0].Result.ThroughputMBps
	for i := range entries {
		if i == 0 {
			entries[i].Best = true
			continue
		}
		if best > 0 {
			entries[i].DiffPct = (entries[i].Result.ThroughputMBps - best) / best * 100
		}
	}
	return CellComparison{Cell: cell, Entries: entries}
}

// composeScores averages each provider's throughput per canonical operation
// across sizes, normalizes against the best per operation, and sums.
func composeScores(providers []ProviderResults) []Score {
	perProvider := map[string]map[string]float64{}
	order := make([]string, 0, len(providers))
	for _, pr := range providers {
		order = append(order, pr.ProviderName)
		stats := map[string]float64{}
		for _, op := range benchmark.CanonicalOps {
			var sum float64
			var n int
			for _, r := range pr.Results {
				if r.Operation == op {
					sum += r.ThroughputMBps
					n++
				}
			}
			if n > 0 {
				stats[op] = sum / float64(n)
			}
		}
		perProvider[pr.ProviderName] = stats
	}

	best := map[string]float64{}
	for _, op := range benchmark.CanonicalOps {
		for _, stats := range perProvider {
			if v, ok := stats[op]; ok && v > best[op] {
				best[op] = v
			}
		}
	}

	scores := make([]Score, 0, len(order))
	for _, name := range order {
		stats := perProvider[name]
		var total float64
		for _, op := range benchmark.CanonicalOps {
			if v, ok := stats[op]; ok && best[op] > 0 {
				total += v / best[op] * 25
			}
		}
		scores = append(scores, Score{Provider: name, Score: total, OpThroughput: stats})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Provider < scores[j].Provider
	})
	return scores
}

func opOrder(op string) int {
	for i, o := range benchmark.CanonicalOps {
		if o == op {
			return i
		}
	}
	return len(benchmark.CanonicalOps)
}
