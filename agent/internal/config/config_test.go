package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	c := Init(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 9480, c.APIPort)
	assert.Equal(t, 2, c.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, c.Backoff)
	assert.Equal(t, time.Duration(0), c.OpTimeout)
	assert.Equal(t, 20*time.Second, c.Countdown)
	assert.Equal(t, 30*time.Minute, c.IdleTTL)
	assert.Equal(t, 10*time.Second, c.Debounce)
	assert.Equal(t, "", c.RedisAddr)
	assert.Equal(t, c, Get())
}

func TestInitReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `agent:
  api:
    port: 9999
  bypass:
    countdown: 5s
  session:
    redis_addr: 127.0.0.1:6379
  policy_file: /tmp/policy.json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c := Init(path)
	assert.Equal(t, 9999, c.APIPort)
	assert.Equal(t, 5*time.Second, c.Countdown)
	assert.Equal(t, "127.0.0.1:6379", c.RedisAddr)
	assert.Equal(t, "/tmp/policy.json", c.PolicyFile)
}
