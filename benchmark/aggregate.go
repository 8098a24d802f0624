package benchmark

import (
	"context"
	"math"
)

// TrialFunc executes one trial and returns its raw result.
type TrialFunc func(ctx context.Context) (Result, error)

// RunRepeated executes the trial repeats times sequentially (minimum once)
// and folds the raw results into one summary: throughput, IOPS, average
// latency and duration are arithmetic means; min/max latency are taken
// across all repeats; VariancePct is the population standard deviation of
// per-repeat throughput over its mean, as a percentage. The workload shape
// fields are identical across repeats by construction and copied from the
// first one.
//
// onRepeat, when non-nil, is called with each raw result as it completes.
func RunRepeated(ctx context.Context, repeats int, trial TrialFunc, onRepeat func(i int, r Result)) (Result, error) {
	if repeats < 1 {
		repeats = 1
	}

	results := make([]Result, 0, repeats)
	for i := 0; i < repeats; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		r, err := trial(ctx)
		if err != nil {
			return Result{}, err
		}
		if onRepeat != nil {
			onRepeat(i, r)
		}
		results = append(results, r)
	}

	if len(results) == 1 {
		return results[0], nil
	}

	summary := results[0]
	summary.Repeats = len(results)

	var sumThroughput, sumIOPS, sumLatency, sumDuration float64
	for _, r := range results {
		sumThroughput += r.ThroughputMBps
		sumIOPS += r.OpsPerSec
		sumLatency += r.AvgLatencyMs
		sumDuration += r.Duration
		if r.MinLatencyMs < summary.MinLatencyMs {
			summary.MinLatencyMs = r.MinLatencyMs
		}
		if r.MaxLatencyMs > summary.MaxLatencyMs {
			summary.MaxLatencyMs = r.MaxLatencyMs
		}
	}
	n := float64(len(results))
	summary.ThroughputMBps = sumThroughput / n
	summary.OpsPerSec = sumIOPS / n
	summary.AvgLatencyMs = sumLatency / n
	summary.Duration = sumDuration / n
	summary.VariancePct = throughputVariancePct(results, summary.ThroughputMBps)

	return summary, nil
}

// throughputVariancePct computes the coefficient of variation of per-repeat
// throughput. Zero when the mean is zero.
func throughputVariancePct(results []Result, mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	var sumSquares float64
	for _, r := range results {
		d := r.ThroughputMBps - mean
		sumSquares += d * d
	}
	stdDev := math.Sqrt(sumSquares / float64(len(results)))
	return stdDev / mean * 100
}
