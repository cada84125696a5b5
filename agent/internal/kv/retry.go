package kv

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds retries of transient storage failures.
// MaxRetries counts retries, so MaxRetries=2 allows 3 attempts.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	// Timeout bounds each attempt. Zero means no timeout.
	Timeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Backoff: 250 * time.Millisecond}
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrStorageTransient) || errors.Is(err, ErrTimeout)
}

// Do runs op until it succeeds, fails with a non-retryable error, the
// context ends, or the policy is exhausted. The last error is returned.
func Do(ctx context.Context, p RetryPolicy, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(p.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		err = runAttempt(ctx, p.Timeout, op)
		if err == nil || !Retryable(err) {
			return err
		}
	}
	return err
}

func runAttempt(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error) error {
	if timeout <= 0 {
		return op(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := op(actx)
	if err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return ErrTimeout
	}
	return err
}

// Retrying wraps a Store so every call goes through Do.
type Retrying struct {
	Store  Store
	Policy RetryPolicy
}

func WithRetry(s Store, p RetryPolicy) *Retrying {
	return &Retrying{Store: s, Policy: p}
}

func (r *Retrying) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := Do(ctx, r.Policy, func(ctx context.Context) error {
		v, err := r.Store.Get(ctx, key)
		out = v
		return err
	})
	return out, err
}

func (r *Retrying) Set(ctx context.Context, key string, value []byte) error {
	return Do(ctx, r.Policy, func(ctx context.Context) error {
		return r.Store.Set(ctx, key, value)
	})
}
