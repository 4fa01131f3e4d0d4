// Package methodpool fans whole-method optimization work out over a bounded
// worker pool. Each job owns one *ir.IRCode for the duration of
// peephole.Optimize, matching §5's "single-threaded per IRCode" exclusivity
// requirement — the pool only ever parallelizes across distinct methods,
// never within one.
//
// Grounded on the teacher's common/gopool/pool.go, itself a thin wrapper
// over github.com/panjf2000/ants/v2. We depart from gopool's fire-and-forget
// global Submit: our jobs need per-job error collection (a method that fails
// its consistency check must be reported, not just logged), so Run manages
// its own pool instance and waits for every job before returning.
package methodpool

import (
	"errors"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/peephole"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// minMethodsPerWorker mirrors the teacher's Threads() sizing heuristic:
// don't spin up more workers than there is work to spread across them.
const minMethodsPerWorker = 5

// Job is one method's optimization work: a CFG and the allocator that
// already ran linear scan over it.
type Job struct {
	ID    string
	Code  *ir.IRCode
	Alloc regalloc.Allocator
}

// Result is a job's outcome, always present in the same order as the input
// slice regardless of completion order.
type Result struct {
	ID  string
	Err error
}

// Threads picks a worker count for the given amount of work, the same
// division-with-a-floor-and-ceiling shape as the teacher's gopool.Threads.
func Threads(jobs int) int {
	n := jobs / minMethodsPerWorker
	if n > runtime.NumCPU() {
		return runtime.NumCPU()
	}
	if n == 0 {
		return 1
	}
	return n
}

// Run optimizes every job concurrently across a pool sized by Threads(len(jobs))
// and returns one Result per job, in input order. It blocks until every job
// has completed; there is no mid-run cancellation, matching §5.
func Run(jobs []Job) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(Threads(len(jobs)), ants.WithExpiryDuration(10*time.Second))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]Result, len(jobs))
	done := make(chan struct{}, len(jobs))

	for i, job := range jobs {
		i, job := i, job
		submitErr := pool.Submit(func() {
			defer func() { done <- struct{}{} }()
			results[i] = Result{ID: job.ID, Err: peephole.Optimize(job.Code, job.Alloc)}
		})
		if submitErr != nil {
			results[i] = Result{ID: job.ID, Err: submitErr}
			done <- struct{}{}
		}
	}

	for range jobs {
		<-done
	}
	return results, nil
}

// Errors collects the non-nil errors out of a Run result set, for callers
// that just want to know whether the batch succeeded.
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
