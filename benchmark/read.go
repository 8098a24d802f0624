package benchmark

import (
	"context"
	"fmt"
)

// ReadSequential downloads count objects of size bytes one at a time. The
// keys are the ones a preceding write trial of the same shape stored.
func (r *Runner) ReadSequential(ctx context.Context, size int64, count int) (Result, error) {
	return r.runSequential(ctx, OpRead, size, count, r.loadOne)
}

// ReadParallel downloads count objects of size bytes across the worker pool.
func (r *Runner) ReadParallel(ctx context.Context, size int64, count int) (Result, error) {
	return r.runParallel(ctx, OpReadParallel, size, count, r.loadOne)
}

func (r *Runner) loadOne(ctx context.Context, key string) error {
	_, found, err := r.Backend.Load(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		// A missing object mid-benchmark means the write phase's data was
		// lost or never completed. That is a correctness failure, not an
		// expected outcome.
		return fmt.Errorf("object %s not found: write phase data is missing or incomplete", key)
	}
	return nil
}
