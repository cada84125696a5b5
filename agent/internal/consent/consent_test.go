package consent

import (
	"context"
	"testing"

	"focus-guard/agent/internal/kv"
	"focus-guard/agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	c := New(kv.NewMemoryStore())

	assert.False(t, c.Get(ctx, models.PlatformTwitter))
	require.NoError(t, c.Set(ctx, models.PlatformTwitter))
	assert.True(t, c.Get(ctx, models.PlatformTwitter))
	assert.False(t, c.Get(ctx, models.PlatformLinkedIn))
}

func TestSurvivesReloadWithinSession(t *testing.T) {
	ctx := context.Background()
	session := kv.NewMemoryStore()

	require.NoError(t, New(session).Set(ctx, models.PlatformMedia))

	reloaded := New(session)
	assert.True(t, reloaded.Get(ctx, models.PlatformMedia))
}

func TestNewSessionStartsEmpty(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, New(kv.NewMemoryStore()).Set(ctx, models.PlatformMedia))

	assert.False(t, New(kv.NewMemoryStore()).Get(ctx, models.PlatformMedia))
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, kv.ErrStorageTransient }
func (failingStore) Set(context.Context, string, []byte) error    { return kv.ErrStorageTransient }

func TestGrantHoldsWhenSessionStoreFails(t *testing.T) {
	ctx := context.Background()
	c := New(failingStore{})

	assert.Error(t, c.Set(ctx, models.PlatformAI))
	assert.True(t, c.Get(ctx, models.PlatformAI))
	assert.Equal(t, map[models.Platform]bool{models.PlatformAI: true}, c.Snapshot(ctx))
}
