package benchmark

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTrial(throughputs []float64) TrialFunc {
	i := 0
	return func(ctx context.Context) (Result, error) {
		r := Result{
			Operation:      OpWrite,
			ObjectSize:     1024,
			ObjectCount:    10,
			TotalBytes:     10240,
			Duration:       1.0,
			ThroughputMBps: throughputs[i],
			OpsPerSec:      10,
			AvgLatencyMs:   5,
			MinLatencyMs:   float64(i + 1),
			MaxLatencyMs:   float64(10 * (i + 1)),
			Repeats:        1,
		}
		i++
		return r, nil
	}
}

func TestRunRepeatedSingleRepeatPassesThrough(t *testing.T) {
	summary, err := RunRepeated(context.Background(), 1, fixedTrial([]float64{42}), nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, summary.ThroughputMBps)
	assert.Equal(t, 1, summary.Repeats)
	assert.Zero(t, summary.VariancePct)
}

func TestRunRepeatedAverages(t *testing.T) {
	summary, err := RunRepeated(context.Background(), 3, fixedTrial([]float64{10, 20, 30}), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Repeats)
	assert.InDelta(t, 20.0, summary.ThroughputMBps, 1e-9)
	assert.Equal(t, 1.0, summary.MinLatencyMs)
	assert.Equal(t, 30.0, summary.MaxLatencyMs)
	// Population std dev of {10,20,30} is sqrt(200/3) ~ 8.165, so the
	// coefficient of variation against the mean of 20 is ~40.8%.
	assert.InDelta(t, 40.82, summary.VariancePct, 0.01)
}

func TestRunRepeatedIdenticalRepeatsHaveZeroVariance(t *testing.T) {
	summary, err := RunRepeated(context.Background(), 3, fixedTrial([]float64{15, 15, 15}), nil)
	require.NoError(t, err)
	assert.Zero(t, summary.VariancePct)
}

func TestRunRepeatedMinimumOneRepeat(t *testing.T) {
	calls := 0
	trial := func(ctx context.Context) (Result, error) {
		calls++
		return Result{ThroughputMBps: 1, Repeats: 1}, nil
	}
	_, err := RunRepeated(context.Background(), 0, trial, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunRepeatedStopsOnFailure(t *testing.T) {
	bang := errors.New("bang")
	calls := 0
	trial := func(ctx context.Context) (Result, error) {
		calls++
		if calls == 2 {
			return Result{}, bang
		}
		return Result{ThroughputMBps: 1, Repeats: 1}, nil
	}
	_, err := RunRepeated(context.Background(), 5, trial, nil)
	assert.ErrorIs(t, err, bang)
	assert.Equal(t, 2, calls)
}

func TestRunRepeatedReportsEachRepeat(t *testing.T) {
	var seen []float64
	_, err := RunRepeated(context.Background(), 3, fixedTrial([]float64{10, 20, 30}), func(i int, r Result) {
		seen = append(seen, r.ThroughputMBps)
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, seen)
}

func TestRunRepeatedHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunRepeated(ctx, 3, fixedTrial([]float64{1, 1, 1}), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
