package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs action for every element of items in a separate goroutine.
// It waits for all goroutines to finish and returns the first error encountered.
// The context passed to action is cancelled as soon as one action fails.
func ForEach[T any](ctx context.Context, items []T, action func(context.Context, T) error) error {
	return ForEachLimit(ctx, items, -1, action)
}

// ForEachLimit behaves like ForEach but runs at most limit actions at a time.
// A limit below one means no limit.
func ForEachLimit[T any](ctx context.Context, items []T, limit int, action func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}

	group, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for _, item := range items {
		group.Go(func() error {
			return action(ctx, item)
		})
	}

	return group.Wait()
}
