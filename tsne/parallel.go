package tsne

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the point count below which sweeps stay on the calling
// goroutine.
const parallelThreshold = 64

// parallelFor calls fn for every index in [0, n). Indices are split into
// contiguous chunks, one per worker. fn must only write state owned by index i.
func parallelFor(ctx context.Context, n, workers int, fn func(i int) error) error {
	if workers <= 1 || n < parallelThreshold {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
