// Package benchmark drives read/write workloads against a storage backend
// and turns per-operation timings into comparable throughput, IOPS and
// latency statistics.
package benchmark

import (
	"fmt"
	"time"
)

// Canonical operation labels. A (operation, object size) pair identifies a
// test cell when results are compared across providers.
const (
	OpWrite         = "WRITE"
	OpWriteParallel = "WRITE-PARALLEL"
	OpRead          = "READ"
	OpReadParallel  = "READ-PARALLEL"
)

// CanonicalOps lists the four operations in display order.
var CanonicalOps = []string{OpWrite, OpWriteParallel, OpRead, OpReadParallel}

// Result is the immutable summary of one trial, or of several repeated
// trials folded together by RunRepeated.
type Result struct {
	Operation      string
	ObjectSize     int64
	ObjectCount    int
	TotalBytes     int64
	Duration       float64 // seconds
	ThroughputMBps float64
	OpsPerSec      float64
	AvgLatencyMs   float64
	MinLatencyMs   float64
	MaxLatencyMs   float64
	// VariancePct is the coefficient of variation of throughput across
	// repeats, as a percentage. Zero when only one repeat contributed.
	VariancePct float64
	Repeats     int
}

// newResult computes the aggregate statistics for one completed trial.
func newResult(op string, size int64, count int, duration time.Duration, latencies []float64) (Result, error) {
	secs := duration.Seconds()
	if secs <= 0 {
		return Result{}, fmt.Errorf("%s trial finished with non-positive duration %v", op, duration)
	}
	if len(latencies) == 0 {
		return Result{}, fmt.Errorf("%s trial recorded no operations", op)
	}

	minLat, maxLat, sum := latencies[0], latencies[0], 0.0
	for _, l := range latencies {
		if l < minLat {
			minLat = l
		}
		if l > maxLat {
			maxLat = l
		}
		sum += l
	}

	totalBytes := size * int64(count)
	return Result{
		Operation:      op,
		ObjectSize:     size,
		ObjectCount:    count,
		TotalBytes:     totalBytes,
		Duration:       secs,
		ThroughputMBps: float64(totalBytes) / (1024 * 1024) / secs,
		OpsPerSec:      float64(count) / secs,
		AvgLatencyMs:   sum / float64(len(latencies)),
		MinLatencyMs:   minLat,
		MaxLatencyMs:   maxLat,
		Repeats:        1,
	}, nil
}

// String renders the result as one report table row.
func (r Result) String() string {
	variance := "N/A"
	if r.VariancePct > 0 {
		variance = fmt.Sprintf("±%.1f%%", r.VariancePct)
	}
	return fmt.Sprintf(
		"%-14s | Size: %8s | Count: %5d | Throughput: %7.2f MB/s | IOPS: %7.2f | Latency: %6.2fms | Variance: %8s",
		r.Operation, FormatSize(r.ObjectSize), r.ObjectCount,
		r.ThroughputMBps, r.OpsPerSec, r.AvgLatencyMs, variance)
}

// FormatSize renders a byte count the way benchmark reports expect:
// plain bytes below 1 KiB, then whole KB/MB.
func FormatSize(sizeBytes int64) string {
	switch {
	case sizeBytes < 1024:
		return fmt.Sprintf("%dB", sizeBytes)
	case sizeBytes < 1024*1024:
		return fmt.Sprintf("%.0fKB", float64(sizeBytes)/1024)
	default:
		return fmt.Sprintf("%.0fMB", float64(sizeBytes)/(1024*1024))
	}
}
