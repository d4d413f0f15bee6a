package workers

import (
	"context"
	"fmt"
)

// Result pairs an item's output with its error, at the item's input index
type Result[R any] struct {
	Value R
	Err   error
}

// Map runs fn over items on the pool and waits for all of them, or for ctx.
// Results keep input order. Submission blocks while the queue is full. An item
// that times out or panics gets a non-nil Err, as does one that could not be
// queued before ctx ended or the pool stopped; the others are unaffected.
func Map[T, R any](ctx context.Context, pool *Pool, items []T, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	done := make([]chan struct{}, len(items))

	for i, item := range items {
		i, item := i, item
		done[i] = make(chan struct{})

		err := pool.SubmitWait(ctx, TaskFunc(func(taskCtx context.Context) error {
			defer close(done[i])

			value, err := runGuarded(taskCtx, func(c context.Context) (R, error) { return fn(c, item) })
			results[i] = Result[R]{Value: value, Err: err}
			return err
		}))
		if err != nil {
			results[i].Err = err
			close(done[i])
		}
	}

	for i := range items {
		select {
		case <-done[i]:
		case <-ctx.Done():
			return fillCancelled(results, done, ctx.Err())
		}
	}
	return results
}

// runGuarded converts a panic in fn into an error so Map's bookkeeping runs,
// and returns early with the context error when the task deadline passes.
func runGuarded[R any](ctx context.Context, fn func(ctx context.Context) (R, error)) (R, error) {
	type outcome struct {
		value R
		err   error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero R
				ch <- outcome{value: zero, err: &PanicError{Recovered: r}}
			}
		}()
		value, err := fn(ctx)
		ch <- outcome{value: value, err: err}
	}()

	select {
	case out := <-ch:
		return out.value, out.err
	case <-ctx.Done():
		var zero R
		return zero, fmt.Errorf("task aborted: %w", ctx.Err())
	}
}

func fillCancelled[R any](results []Result[R], done []chan struct{}, err error) []Result[R] {
	out := make([]Result[R], len(results))
	for i := range results {
		select {
		case <-done[i]:
			out[i] = results[i]
		default:
			out[i] = Result[R]{Err: err}
		}
	}
	return out
}
