package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first n calls with err.
type flakyStore struct {
	*MemoryStore
	failures int
	err      error
	calls    int
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}
}

func TestRetrySucceedsWithinBudget(t *testing.T) {
	f := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2, err: transient(errors.New("context torn down"))}
	s := WithRetry(f, fastPolicy())

	require.NoError(t, s.Set(context.Background(), "k", []byte("v")))
	assert.Equal(t, 3, f.calls)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	f := &flakyStore{MemoryStore: NewMemoryStore(), failures: 5, err: transient(errors.New("boom"))}
	s := WithRetry(f, fastPolicy())

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStorageTransient)
	assert.Equal(t, 3, f.calls, "one attempt plus two retries")
}

func TestRetrySkipsNonRetryable(t *testing.T) {
	f := &flakyStore{MemoryStore: NewMemoryStore(), failures: 5, err: ErrStorageUnavailable}
	s := WithRetry(f, fastPolicy())

	err := s.Set(context.Background(), "k", []byte("v"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, 1, f.calls)
}

func TestRetryNotFoundIsNotRetried(t *testing.T) {
	f := &flakyStore{MemoryStore: NewMemoryStore()}
	s := WithRetry(f, fastPolicy())

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, f.calls)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	f := &flakyStore{MemoryStore: NewMemoryStore(), failures: 5, err: transient(errors.New("boom"))}
	s := WithRetry(f, RetryPolicy{MaxRetries: 2, Backoff: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := s.Set(ctx, "k", []byte("v"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.calls)
}

type slowStore struct{ *MemoryStore }

func (s slowStore) Get(ctx context.Context, key string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRetryTimeoutSurfacesAsErrTimeout(t *testing.T) {
	s := WithRetry(slowStore{NewMemoryStore()}, RetryPolicy{MaxRetries: 1, Backoff: time.Millisecond, Timeout: 5 * time.Millisecond})

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var out map[string]int
	found, err := GetJSON(ctx, s, "m", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, "m", map[string]int{"a": 1}))
	found, err = GetJSON(ctx, s, "m", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, out["a"])

	require.NoError(t, s.Set(ctx, "bad", []byte("{")))
	found, err = GetJSON(ctx, s, "bad", &out)
	assert.True(t, found)
	assert.Error(t, err)
}
