package db

import (
	"database/sql"

	"storagebench/benchmark"
)

// StoredResult is one persisted result row with its provider attribution.
type StoredResult struct {
	RunID        int64
	Provider     string
	ProviderType string
	benchmark.Result
}

// RunSink binds a Store to one run ID so the benchmark suite can stream
// results into it. It implements benchmark.ResultSink.
type RunSink struct {
	store *Store
	runID int64
}

var _ benchmark.ResultSink = (*RunSink)(nil)

// Sink returns a ResultSink which attributes every result to the given run.
func (s *Store) Sink(runID int64) *RunSink {
	return &RunSink{store: s, runID: runID}
}

// AddResult persists one summary result.
func (r *RunSink) AddResult(providerName, providerType string, res benchmark.Result) error {
	return r.store.AddResult(r.runID, providerName, providerType, res)
}

// AddResult persists a result under an existing run.
func (s *Store) AddResult(runID int64, providerName, providerType string, r benchmark.Result) error {
	_, err := s.db.Exec(`
		INSERT INTO results (
			run_id, provider_name, provider_type, operation,
			object_size, object_count, total_bytes, duration,
			throughput_mbps, ops_per_sec,
			avg_latency_ms, min_latency_ms, max_latency_ms,
			variance_pct, repeats
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, providerName, providerType, r.Operation,
		r.ObjectSize, r.ObjectCount, r.TotalBytes, r.Duration,
		r.ThroughputMBps, r.OpsPerSec,
		r.AvgLatencyMs, r.MinLatencyMs, r.MaxLatencyMs,
		r.VariancePct, r.Repeats)
	return err
}

// RunResults returns every result of one run, ordered for display.
func (s *Store) RunResults(runID int64) ([]StoredResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, provider_name, provider_type, operation,
		       object_size, object_count, total_bytes, duration,
		       throughput_mbps, ops_per_sec,
		       avg_latency_ms, min_latency_ms, max_latency_ms,
		       variance_pct, repeats
		FROM results
		WHERE run_id = ?
		ORDER BY provider_name, operation, object_size`, runID)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// RecentProviderResults returns a provider's most recent results, newest run
// first, bounded by limit. The compare command feeds these into the
// cross-provider comparison.
func (s *Store) RecentProviderResults(provider string, limit int) ([]StoredResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, provider_name, provider_type, operation,
		       object_size, object_count, total_bytes, duration,
		       throughput_mbps, ops_per_sec,
		       avg_latency_ms, min_latency_ms, max_latency_ms,
		       variance_pct, repeats
		FROM results
		WHERE provider_name = ?
		ORDER BY run_id DESC, id
		LIMIT ?`, provider, limit)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]StoredResult, error) {
	defer rows.Close()
	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		if err := rows.Scan(
			&r.RunID, &r.Provider, &r.ProviderType, &r.Operation,
			&r.ObjectSize, &r.ObjectCount, &r.TotalBytes, &r.Duration,
			&r.ThroughputMBps, &r.OpsPerSec,
			&r.AvgLatencyMs, &r.MinLatencyMs, &r.MaxLatencyMs,
			&r.VariancePct, &r.Repeats); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ProviderStats is the aggregate standing of one provider across all runs.
type ProviderStats struct {
	Provider      string
	RunCount      int
	TestCount     int
	AvgThroughput float64
	MaxThroughput float64
	AvgIOPS       float64
	AvgLatency    float64
	MinLatency    float64
}

// Stats aggregates per-provider statistics across every stored run. Pass an
// empty provider name for all providers.
func (s *Store) Stats(provider string) ([]ProviderStats, error) {
	query := `
		SELECT provider_name,
		       COUNT(DISTINCT run_id),
		       COUNT(*),
		       AVG(throughput_mbps),
		       MAX(throughput_mbps),
		       AVG(ops_per_sec),
		       AVG(avg_latency_ms),
		       MIN(avg_latency_ms)
		FROM results`
	args := []any{}
	if provider != "" {
		query += ` WHERE provider_name = ?`
		args = append(args, provider)
	}
	query += ` GROUP BY provider_name ORDER BY AVG(throughput_mbps) DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProviderStats
	for rows.Next() {
		var st ProviderStats
		if err := rows.Scan(&st.Provider, &st.RunCount, &st.TestCount,
			&st.AvgThroughput, &st.MaxThroughput, &st.AvgIOPS,
			&st.AvgLatency, &st.MinLatency); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ProviderNames lists every provider that has stored results, ordered by
// average throughput descending.
func (s *Store) ProviderNames() ([]string, error) {
	stats, err := s.Stats("")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stats))
	for _, st := range stats {
		names = append(names, st.Provider)
	}
	return names, nil
}
