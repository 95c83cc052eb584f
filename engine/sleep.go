package engine

import (
	"context"
	"math/rand/v2"
	"time"
)

// Sleeper pauses for a duration or until ctx is done. Every wait in the
// pipeline goes through a Sleeper so tests can run without real delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleepFunc adapts a function to the Sleeper interface.
type SleepFunc func(ctx context.Context, d time.Duration) error

func (f SleepFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// RealSleep blocks on a timer. The context is checked before the timer
// starts so an expired deadline never costs a full wait.
var RealSleep Sleeper = SleepFunc(func(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// NoSleep returns immediately unless ctx is already done.
var NoSleep Sleeper = SleepFunc(func(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
})

// Between returns a uniformly random duration in [lo, hi]. If hi <= lo it
// returns lo.
func Between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}
