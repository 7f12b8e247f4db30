package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MapLimit calls fn for every index in [0, n) with at most limit calls in
// flight and returns the results in index order. A limit below 2 runs the
// calls one after another on the caller's goroutine.
//
// fn cannot fail; callers that need per-item errors carry them in T.
func MapLimit[T any](ctx context.Context, limit, n int, fn func(ctx context.Context, i int) T) []T {
	results := make([]T, n)

	if limit < 2 {
		for i := range n {
			results[i] = fn(ctx, i)
		}

		return results
	}

	var g errgroup.Group

	g.SetLimit(limit)

	for i := range n {
		g.Go(func() error {
			results[i] = fn(ctx, i)
			return nil
		})
	}

	_ = g.Wait()

	return results
}
