package engine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RunBatch runs n independent engines concurrently and returns their results
// in index order. build must return a fresh Engine for every index; engines
// share no state. The first failing run cancels the others.
func RunBatch(ctx context.Context, n int, build func(i int) (*Engine, error)) ([]*Result, error) {
	results := make([]*Result, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			eng, err := build(i)
			if err != nil {
				return fmt.Errorf("build run %d: %w", i, err)
			}
			res, err := eng.Run(gctx)
			if err != nil {
				return fmt.Errorf("run %d (%s): %w", i, eng.RunID(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
