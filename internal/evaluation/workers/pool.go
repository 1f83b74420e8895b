// Package workers runs independent CPU-bound evaluations on a bounded pool
// of goroutines.
package workers

import (
	"fmt"
	"sync"
)

// DefaultWorkers is used when a pool is created with a non-positive size.
const DefaultWorkers = 10

// ProgressCallback receives the number of completed items after each one finishes.
// It is always invoked from a single goroutine, with current strictly increasing.
type ProgressCallback func(current, total int, message string)

// WorkerPool manages a pool of worker goroutines for parallel evaluation
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Size returns the number of workers.
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// EvaluateBatch evaluates every item in parallel and returns the results in
// input order.
//
// evaluate must not share mutable state between calls. progress may be nil.
func EvaluateBatch[T, R any](wp *WorkerPool, items []T, evaluate func(T) R, progress ProgressCallback) []R {
	total := len(items)
	results := make([]R, total)
	if total == 0 {
		return results
	}

	jobs := make(chan int, total)
	done := make(chan int, total)

	workers := wp.numWorkers
	if total < workers {
		workers = total // Don't spawn more workers than items
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = evaluate(items[idx])
				done <- idx
			}
		}()
	}

	for idx := range items {
		jobs <- idx
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for range done {
		completed++
		if progress != nil {
			progress(completed, total, fmt.Sprintf("Evaluating %d/%d", completed, total))
		}
	}

	return results
}
