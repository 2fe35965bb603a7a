// Package workerpool runs a function over a slice of items with bounded
// concurrency.
package workerpool

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for every item using at most workers goroutines and returns
// all failures joined, in item order. One failing item does not stop the
// others. Items not yet started when ctx is cancelled are skipped and
// reported through ctx.Err().
func Run[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	errs := make([]error, len(items))
	skipped := 0
	for i, item := range items {
		if ctx.Err() != nil {
			skipped = len(items) - i
			break
		}
		g.Go(func() error {
			errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	if skipped > 0 {
		errs = append(errs, fmt.Errorf("%d items skipped: %w", skipped, ctx.Err()))
	}
	return errors.Join(errs...)
}
