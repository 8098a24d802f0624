package benchmark

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"storagebench/storage"
)

// DefaultWorkers is the parallel-mode pool width when none is configured.
const DefaultWorkers = 10

// Runner executes write and read trials against one backend. A Runner owns
// its backend for the duration of a benchmarking session and must not be
// shared across concurrent suites; the backend itself must tolerate
// concurrent Save/Load calls from the parallel worker pool.
type Runner struct {
	Backend storage.Backend
	// Prefix namespaces every generated key.
	Prefix string
	// Workers is the parallel-mode pool width. Zero means DefaultWorkers.
	Workers int
	// Limiter, when set, throttles the aggregate operation rate across
	// sequential loops and all pool workers.
	Limiter *rate.Limiter
	// Tick, when set, is called once per completed operation. The suite uses
	// it to advance progress bars.
	Tick func()
}

func (r *Runner) wait(ctx context.Context) error {
	if r.Limiter == nil {
		return nil
	}
	return r.Limiter.Wait(ctx)
}

func (r *Runner) tick() {
	if r.Tick != nil {
		r.Tick()
	}
}

// runSequential issues count operations one at a time in strict key order.
// The trial wall clock spans the whole loop; each operation's latency is
// recorded individually. The first failure aborts the trial.
func (r *Runner) runSequential(ctx context.Context, op string, size int64, count int,
	doOp func(ctx context.Context, key string) error) (Result, error) {

	latencies := make([]float64, 0, count)

	start := time.Now()
	for i := 0; i < count; i++ {
		if err := r.wait(ctx); err != nil {
			return Result{}, err
		}
		key := TestKey(r.Prefix, size, i)
		opStart := time.Now()
		if err := doOp(ctx, key); err != nil {
			return Result{}, err
		}
		latencies = append(latencies, millis(time.Since(opStart)))
		r.tick()
	}
	return newResult(op, size, count, time.Since(start), latencies)
}

// runParallel issues the same count operations across a bounded worker pool.
// Workers pull indexes from a shared atomic counter, so every key is
// processed exactly once with no ordering guarantee. The wall clock spans
// pool start through full drain; the first failing operation cancels the
// rest and wins.
func (r *Runner) runParallel(ctx context.Context, op string, size int64, count int,
	doOp func(ctx context.Context, key string) error) (Result, error) {

	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Indexed slots keep latency recording race-free without a lock in the
	// hot path.
	latencies := make([]float64, count)

	var (
		wg        sync.WaitGroup
		nextIndex int64
		errOnce   sync.Once
		firstErr  error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if poolCtx.Err() != nil {
					return
				}
				i := int(atomic.AddInt64(&nextIndex, 1) - 1)
				if i >= count {
					return
				}
				if err := r.wait(poolCtx); err != nil {
					fail(err)
					return
				}
				key := TestKey(r.Prefix, size, i)
				opStart := time.Now()
				if err := doOp(poolCtx, key); err != nil {
					fail(err)
					return
				}
				latencies[i] = millis(time.Since(opStart))
				r.tick()
			}
		}()
	}
	wg.Wait()
	duration := time.Since(start)

	if firstErr == nil {
		// Workers exit quietly when the caller's context is already done.
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return Result{}, firstErr
	}
	return newResult(op, size, count, duration, latencies)
}

func millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
