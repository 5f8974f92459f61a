package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/gitrdm/gowam/internal/parallel"
	"github.com/gitrdm/gowam/pkg/term"
)

// Job is one independent (program, query) pair to run as part of a batch.
type Job struct {
	Clauses []term.Clause
	Query   term.Term
}

// Result is one Job's outcome: every solution found, or the error that
// stopped the run (compile error, step-budget exceeded, or runtime fault).
type Result struct {
	Solutions []Solution
	Err       error
}

// RunBatch runs every job in jobs to full enumeration, fanning them out
// across a worker pool sized by opts.WorkerPoolSize. Each job runs in its
// own Session against its own Machine; machines share no state, so this
// only parallelizes across independent instances, never within one.
// Results are returned in the same order as jobs.
func RunBatch(jobs []Job, opts Options) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	pool := parallel.NewWorkerPool(opts.WorkerPoolSize)
	defer pool.Shutdown()
	detector := pool.GetDeadlockDetector()

	var wg sync.WaitGroup
	for i, job := range jobs {
		i, job := i, job
		wg.Add(1)
		taskID := fmt.Sprintf("wam-batch-job-%d", i)
		err := pool.Submit(context.Background(), func() {
			defer wg.Done()
			detector.RegisterTask(taskID, "wam batch query")
			defer detector.UnregisterTask(taskID)

			session, err := NewSession(job.Clauses, job.Query, opts)
			if err != nil {
				results[i] = Result{Err: err}
				return
			}
			sols, err := session.Solutions(0)
			results[i] = Result{Solutions: sols, Err: err}
		})
		if err != nil {
			wg.Done()
			results[i] = Result{Err: err}
		}
	}
	wg.Wait()
	return results
}
