package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionState(t *testing.T) {
	assert.Empty(t, GetSessionID())
	SetSessionID("f3b1c0de")
	assert.Equal(t, "f3b1c0de", GetSessionID())

	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	SetStartedAt(now)
	assert.Equal(t, now, GetStartedAt())
}
