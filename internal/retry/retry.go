// Package retry implements the backoff policy shared by the embedding,
// vector store and generation clients. Callers classify errors as
// transient or fatal; only transient ones are retried.
package retry

import (
	"context"
	"math/rand"
	"time"
)

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is a fraction of the computed delay added randomly on top,
	// e.g. 0.2 for up to +20%.
	Jitter float64
}

// Default returns the policy used across the pipeline when the
// configuration does not override it.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      0.2,
	}
}

// Do runs op up to MaxAttempts times. A fatal error (transient returns
// false) is returned immediately. Sleeping respects ctx cancellation.
func (p Policy) Do(ctx context.Context, transient func(error) bool, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if sleepErr := p.sleep(ctx, attempt); sleepErr != nil {
				return sleepErr
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if transient != nil && !transient(err) {
			return err
		}
	}
	return err
}

func (p Policy) sleep(ctx context.Context, attempt int) error {
	delay := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		delay += time.Duration(p.Jitter * rand.Float64() * float64(delay))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
