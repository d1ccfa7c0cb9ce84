package organizer

import (
	"context"
	"sync"
)

// runPool calls fn for every index in [0, n) using up to workers
// goroutines. Once ctx is done no new index is started; in-flight calls
// finish. The returned error is ctx.Err() if any index was skipped.
func runPool(ctx context.Context, workers, n int, fn func(i int)) error {
	if n == 0 {
		return ctx.Err()
	}
	if workers <= 0 {
		workers = 1
	}
	workers = min(workers, n)

	// Create work channel
	work := make(chan int, n)
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	var (
		wg        sync.WaitGroup
		skippedMu sync.Mutex
		skipped   bool
	)

	// Start workers
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					skippedMu.Lock()
					skipped = true
					skippedMu.Unlock()
					continue
				}
				fn(i)
			}
		}()
	}

	wg.Wait()

	if skipped {
		return ctx.Err()
	}
	return nil
}
