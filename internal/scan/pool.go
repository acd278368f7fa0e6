package scan

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// HashAll hashes scans on at most workers goroutines (runtime.NumCPU() when
// workers <= 0). Per-scan failures are returned keyed by path and do not stop
// the batch; only context cancellation aborts it. Completion order never
// affects the result.
func HashAll(ctx context.Context, scans []*Scan, workers int) (map[string]error, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu       sync.Mutex
		failures = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, s := range scans {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.Hash(); err != nil {
				mu.Lock()
				failures[s.Path] = err
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failures, err
	}
	if err := ctx.Err(); err != nil {
		return failures, err
	}
	return failures, nil
}
