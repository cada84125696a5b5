package state

import (
	"sync/atomic"
	"time"
)

type appState struct {
	SessionID atomic.Value // string
	StartedAt atomic.Value // time.Time
}

var s appState

// SetSessionID stores the browsing-session id. Session-scoped data is keyed
// by it, so a new id means a fresh session.
func SetSessionID(id string) { s.SessionID.Store(id) }
func GetSessionID() string {
	if v := s.SessionID.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func SetStartedAt(t time.Time) { s.StartedAt.Store(t) }
func GetStartedAt() time.Time {
	if v := s.StartedAt.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}
