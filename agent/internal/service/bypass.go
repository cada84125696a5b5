package service

import (
	"context"
	"fmt"
	"time"

	"focus-guard/agent/internal/bypass"
	"focus-guard/agent/internal/logger"

	"github.com/google/uuid"
)

// BeginBypass opens reason entry for a blocked hostname. The gate is
// re-evaluated so a bypass can only start from a current Deny. The
// evaluation never consumes the daily visit.
func (g *Guard) BeginBypass(ctx context.Context, hostname string) (bypass.Status, error) {
	res, _ := g.evaluate(ctx, hostname)
	if !res.Gated || res.Decision.Allowed {
		return bypass.Status{}, fmt.Errorf("%w: %s", ErrNotBlocked, hostname)
	}

	id := uuid.NewString()
	s := bypass.New(id, res.Platform, res.Decision.BlockType, bypass.Options{
		Countdown: g.opts.Countdown,
		Scheduler: g.opts.Scheduler,
		Recorder:  g.audit,
		Unlocker:  g.consent,
	})
	if err := s.Begin(); err != nil {
		return bypass.Status{}, err
	}

	g.mu.Lock()
	g.reapLocked()
	g.sessions[id] = s
	g.touched[id] = g.opts.Now()
	g.mu.Unlock()
	logger.L.Info().Str("session", id).Str("platform", string(res.Platform)).Msg("bypass started")
	return s.Status(), nil
}

// reapLocked forgets finished sessions, whose outcome has been recorded, and
// aborts sessions left in idle or reason entry longer than IdleTTL.
func (g *Guard) reapLocked() {
	now := g.opts.Now()
	for id, s := range g.sessions {
		switch st := s.State(); {
		case st.Terminal():
		case st != bypass.StateCountdown && now.Sub(g.touched[id]) > g.opts.IdleTTL:
			s.Close()
			logger.Infof("Bypass session %s expired in state %s", id, st)
		default:
			continue
		}
		delete(g.sessions, id)
		delete(g.touched, id)
	}
}

func (g *Guard) session(id string) (*bypass.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	g.touched[id] = g.opts.Now()
	return s, nil
}

// Reenter reopens reason entry on a session that was cancelled back to Idle.
func (g *Guard) Reenter(id string) (bypass.Status, error) {
	s, err := g.session(id)
	if err != nil {
		return bypass.Status{}, err
	}
	if err := s.Begin(); err != nil {
		return s.Status(), err
	}
	return s.Status(), nil
}

// SubmitReason starts the countdown when text is acceptable. accepted is
// false when the reason was rejected; the session stays in reason entry.
func (g *Guard) SubmitReason(id, text string) (status bypass.Status, accepted bool, err error) {
	s, err := g.session(id)
	if err != nil {
		return bypass.Status{}, false, err
	}
	accepted, err = s.SubmitReason(text)
	return s.Status(), accepted, err
}

func (g *Guard) CancelReason(id string) (bypass.Status, error) {
	s, err := g.session(id)
	if err != nil {
		return bypass.Status{}, err
	}
	err = s.CancelReason()
	return s.Status(), err
}

func (g *Guard) Abort(id string) (bypass.Status, error) {
	s, err := g.session(id)
	if err != nil {
		return bypass.Status{}, err
	}
	err = s.Abort()
	return s.Status(), err
}

func (g *Guard) Status(id string) (bypass.Status, error) {
	s, err := g.session(id)
	if err != nil {
		return bypass.Status{}, err
	}
	return s.Status(), nil
}

// Close ends a session whose surface went away. A running countdown is
// cancelled without commit.
func (g *Guard) Close(id string) error {
	g.mu.Lock()
	s, ok := g.sessions[id]
	delete(g.sessions, id)
	delete(g.touched, id)
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	return nil
}

// CloseAll cancels every live session.
func (g *Guard) CloseAll() {
	g.mu.Lock()
	sessions := g.sessions
	g.sessions = map[string]*bypass.Session{}
	g.touched = map[string]time.Time{}
	g.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
	if n := len(sessions); n > 0 {
		logger.Infof("Closed %d bypass sessions", n)
	}
}
