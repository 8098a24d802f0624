package benchmark

import "context"

// WriteSequential uploads count objects of size bytes one at a time, reusing
// a single payload buffer for the whole trial.
func (r *Runner) WriteSequential(ctx context.Context, size int64, count int) (Result, error) {
	data := Payload(size)
	return r.runSequential(ctx, OpWrite, size, count, func(ctx context.Context, key string) error {
		return r.Backend.Save(ctx, key, data)
	})
}

// WriteParallel uploads count objects of size bytes across the worker pool.
func (r *Runner) WriteParallel(ctx context.Context, size int64, count int) (Result, error) {
	data := Payload(size)
	return r.runParallel(ctx, OpWriteParallel, size, count, func(ctx context.Context, key string) error {
		return r.Backend.Save(ctx, key, data)
	})
}
