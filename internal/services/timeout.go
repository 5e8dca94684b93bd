package services

import (
	"context"
	"fmt"
	"time"
)

// withTimeout runs fn and gives up after timeout. fn keeps running in its
// goroutine when abandoned, so it must not hold resources the caller needs.
// A non-positive timeout runs fn inline.
func withTimeout[T any](ctx context.Context, timeout time.Duration, name string, fn func() (T, error)) (T, error) {
	if timeout <= 0 {
		return fn()
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-timeoutCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		return zero, fmt.Errorf("%s: %w (limit: %v)", name, context.DeadlineExceeded, timeout)
	}
}
