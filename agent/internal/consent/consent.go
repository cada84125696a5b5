// Package consent remembers, for the current browsing session only, which
// platforms the user already earned access to.
package consent

import (
	"context"
	"errors"
	"sync"

	"focus-guard/agent/internal/kv"
	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/models"
)

const sessionKey = "sessionConsent"

// Cache is an in-memory map written through to a session-scoped store. It
// never touches the durable store.
type Cache struct {
	mu       sync.Mutex
	granted  map[models.Platform]bool
	session  kv.Store
	hydrated bool
}

func New(session kv.Store) *Cache {
	return &Cache{granted: map[models.Platform]bool{}, session: session}
}

// Get reports whether consent was granted for p in this session.
func (c *Cache) Get(ctx context.Context, p models.Platform) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hydrateLocked(ctx)
	return c.granted[p]
}

// Set grants consent for p. The in-memory grant holds even when the session
// store write fails.
func (c *Cache) Set(ctx context.Context, p models.Platform) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hydrateLocked(ctx)
	c.granted[p] = true
	if c.session == nil {
		return nil
	}
	return kv.SetJSON(ctx, c.session, sessionKey, c.granted)
}

// Snapshot returns a copy of the granted platforms.
func (c *Cache) Snapshot(ctx context.Context) map[models.Platform]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hydrateLocked(ctx)
	out := make(map[models.Platform]bool, len(c.granted))
	for p, v := range c.granted {
		out[p] = v
	}
	return out
}

// hydrateLocked merges grants left in the session store by an earlier
// instance of this session, once.
func (c *Cache) hydrateLocked(ctx context.Context) {
	if c.hydrated || c.session == nil {
		return
	}
	var stored map[models.Platform]bool
	_, err := kv.GetJSON(ctx, c.session, sessionKey, &stored)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warnf("Session consent unavailable: %v", err)
		}
		return
	}
	c.hydrated = true
	for p, v := range stored {
		if v && p.Valid() {
			c.granted[p] = true
		}
	}
}
