// Package parallel provides chunked parallel-for helpers for numeric loops.
// Work is divided into contiguous index ranges so that each goroutine walks
// its own slice of rows, keeping memory access cache-friendly.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits items across up to runtime.NumCPU() goroutines and
// calls fn with the half-open range [start, end) assigned to each worker.
// It returns after every worker has finished.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeWithWorkers(items, runtime.NumCPU(), fn)
}

// ParallelizeWithWorkers is Parallelize with an explicit worker count.
// workers values below 1 run the whole range on the calling goroutine.
func ParallelizeWithWorkers(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if workers < 1 || items == 1 {
		fn(0, items)
		return
	}
	if workers > items {
		workers = items
	}

	// Ceiling division so the last chunk is never empty.
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items is at or below
// threshold, avoiding goroutine overhead on small inputs.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
