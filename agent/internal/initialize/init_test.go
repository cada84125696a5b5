package initialize

import (
	"context"
	"testing"
	"time"

	"focus-guard/agent/internal/config"
	"focus-guard/agent/internal/models"
	"focus-guard/agent/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.AppConfig {
	return config.AppConfig{
		DBDriver:   "sqlite",
		DBDSN:      "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxRetries: 1,
		Backoff:    time.Millisecond,
		Countdown:  20 * time.Second,
	}
}

func TestBuildAndSession(t *testing.T) {
	app, err := Build(testConfig(t))
	require.NoError(t, err)
	ctx := context.Background()

	cfg := app.Config.Read(ctx)
	assert.True(t, cfg.SocialMediaSites.Enabled)
	require.NoError(t, app.Config.Write(ctx, cfg))

	sess, err := app.NewSession(ctx)
	require.NoError(t, err)
	defer sess.Close()
	assert.Equal(t, sess.ID, state.GetSessionID())

	res := sess.Guard.Check(ctx, "cnn.com")
	assert.Equal(t, models.PlatformMedia, res.Platform)
	assert.True(t, res.Decision.Allowed)
}
