package browser

import (
	"context"
	"time"
)

// DefaultPollInterval is used when SettleOptions.Interval is unset
const DefaultPollInterval = 100 * time.Millisecond

// SettleOptions bounds a wait for the page to settle
type SettleOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Condition reports whether the page has reached the awaited state
type Condition func(ctx context.Context) (bool, error)

// Settle polls cond until it holds, until opts.Timeout elapses, or until ctx
// is done. Running out of time is not an error: it returns false so callers
// can carry on the way a fixed delay would. A nil cond waits the full
// timeout and returns true.
func Settle(ctx context.Context, opts SettleOptions, cond Condition) (bool, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	if cond == nil {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return true, nil
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, nil
		case <-ticker.C:
		}
	}
}

// Present is a Condition that holds once selector resolves in s
func Present(s Session, selector string) Condition {
	return func(ctx context.Context) (bool, error) {
		_, ok, err := s.Find(ctx, selector)
		return ok, err
	}
}

// Absent is a Condition that holds once selector no longer resolves in s
func Absent(s Session, selector string) Condition {
	return func(ctx context.Context) (bool, error) {
		_, ok, err := s.Find(ctx, selector)
		return !ok, err
	}
}

// Any holds as soon as one of conds holds
func Any(conds ...Condition) Condition {
	return func(ctx context.Context) (bool, error) {
		for _, c := range conds {
			ok, err := c(ctx)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
}
