package solver

import (
	"context"
	"runtime"
	"sync"
)

// Result is the outcome of one configuration in a batch.
type Result struct {
	Config Config
	Output *Output
	Err    error
}

// job is a unit of work for the batch worker pool.
type job struct {
	index int
	cfg   Config
}

// RunArray runs every configuration through r using at most workers
// concurrent runs and returns one Result per configuration, in input order.
// A failed run never affects the others. Configurations not started before
// ctx is done are reported as canceled.
func RunArray(ctx context.Context, r Runner, cfgs []Config, workers int) []Result {
	results := make([]Result, len(cfgs))
	if len(cfgs) == 0 {
		return results
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(cfgs) {
		workers = len(cfgs)
	}

	for i, cfg := range cfgs {
		results[i] = Result{Config: cfg, Err: Fail(cfg, Canceled, context.Canceled)}
	}

	jobs := make(chan job, workers*2)

	// Each index is written by exactly one worker, so results needs no lock.
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results[j.index] = Result{Config: j.cfg, Err: Fail(j.cfg, Canceled, err)}
					continue
				}
				out, err := r.Run(ctx, j.cfg)
				results[j.index] = Result{Config: j.cfg, Output: out, Err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, cfg := range cfgs {
			select {
			case jobs <- job{index: i, cfg: cfg}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	return results
}
