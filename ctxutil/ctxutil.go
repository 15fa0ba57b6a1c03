// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"time"
)

// Sleep blocks the caller for the given duration. It returns early with the
// context's cause if the context is canceled before the duration.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return context.Cause(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

// RetryTimeout runs f at the interval till it succeeds, the context is
// canceled or the timeout expires. Returns the last error from f on failure.
func RetryTimeout(ctx context.Context, interval, timeout time.Duration, f func() error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for err = f(); err != nil && ctx.Err() == nil; err = f() {
		Sleep(ctx, interval)
	}
	return err
}
