// Package bypass drives the accountability workflow that trades a written
// reason and a fixed wait for access despite a Deny:
//
//	Idle -> ReasonEntry -> Countdown -> Committed | Aborted
//
// The wait cannot be shortened. A countdown that was aborted or closed never
// commits, even if its timer callback was already in flight.
package bypass

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/models"
)

type State string

const (
	StateIdle        State = "idle"
	StateReasonEntry State = "reason_entry"
	StateCountdown   State = "countdown"
	StateCommitted   State = "committed"
	StateAborted     State = "aborted"
)

func (s State) Terminal() bool { return s == StateCommitted || s == StateAborted }

const (
	DefaultCountdown = 20 * time.Second
	tick             = time.Second
)

var ErrInvalidTransition = errors.New("invalid bypass transition")

// Recorder is the audit sink written on commit.
type Recorder interface {
	AppendHistory(ctx context.Context, e models.HistoryEntry) error
	AppendBypassReason(ctx context.Context, r models.BypassReason) error
}

// Unlocker grants session consent on commit.
type Unlocker interface {
	Set(ctx context.Context, p models.Platform) error
}

// Commit describes a completed bypass.
type Commit struct {
	Platform  models.Platform
	BlockType models.BlockType
	Reason    string
	At        time.Time
}

type Options struct {
	Countdown time.Duration
	Scheduler Scheduler
	Recorder  Recorder
	Unlocker  Unlocker
	// OnCommit runs after the audit writes and the unlock.
	OnCommit func(Commit)
	// OnTick runs after each countdown second with the time left.
	OnTick func(remaining time.Duration)
}

type Session struct {
	id        string
	platform  models.Platform
	blockType models.BlockType
	opts      Options

	mu        sync.Mutex
	state     State
	reason    string
	remaining time.Duration
	gen       uint64
	timer     Timer
	done      chan struct{}
}

// Status is a point-in-time view of a session.
type Status struct {
	ID        string           `json:"id"`
	Platform  models.Platform  `json:"platform"`
	BlockType models.BlockType `json:"blockType"`
	State     State            `json:"state"`
	Reason    string           `json:"reason,omitempty"`
	Remaining int              `json:"remainingSeconds"`
}

// New starts a session in Idle for a Deny of blockType on platform.
func New(id string, platform models.Platform, blockType models.BlockType, opts Options) *Session {
	if opts.Countdown <= 0 {
		opts.Countdown = DefaultCountdown
	}
	if opts.Scheduler == nil {
		opts.Scheduler = WallScheduler
	}
	return &Session{
		id:        id,
		platform:  platform,
		blockType: blockType,
		opts:      opts,
		state:     StateIdle,
		remaining: opts.Countdown,
		done:      make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Platform() models.Platform { return s.platform }

// Done is closed when the session reaches Committed or Aborted.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:        s.id,
		Platform:  s.platform,
		BlockType: s.blockType,
		State:     s.state,
		Reason:    s.reason,
		Remaining: int((s.remaining + tick - 1) / tick),
	}
}

func (s *Session) transitionErr(op string) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, op, s.state)
}

// Begin opens reason entry.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return s.transitionErr("begin")
	}
	s.state = StateReasonEntry
	return nil
}

// SubmitReason starts the countdown when text is an acceptable reason. An
// unacceptable reason leaves the session in ReasonEntry and reports false;
// the error is reserved for calls in the wrong state.
func (s *Session) SubmitReason(text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReasonEntry {
		return false, s.transitionErr("submit reason")
	}
	if !ReasonAcceptable(text) {
		return false, nil
	}
	s.reason = strings.TrimSpace(text)
	s.state = StateCountdown
	s.remaining = s.opts.Countdown
	s.gen++
	s.scheduleLocked(s.gen)
	return true, nil
}

// CancelReason returns from reason entry to Idle.
func (s *Session) CancelReason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReasonEntry {
		return s.transitionErr("cancel reason")
	}
	s.state = StateIdle
	return nil
}

// Abort stops a running countdown. Nothing is recorded.
func (s *Session) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCountdown {
		return s.transitionErr("abort")
	}
	s.abortLocked()
	return nil
}

// Close tears the session down when its surface goes away. A running
// countdown is aborted; other non-terminal states end as Aborted too.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.abortLocked()
}

func (s *Session) abortLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = StateAborted
	close(s.done)
}

func (s *Session) scheduleLocked(gen uint64) {
	s.timer = s.opts.Scheduler.AfterFunc(tick, func() { s.onTick(gen) })
}

func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateCountdown {
		s.mu.Unlock()
		return
	}
	s.remaining -= tick
	remaining := s.remaining
	if remaining > 0 {
		s.scheduleLocked(gen)
		s.mu.Unlock()
		if s.opts.OnTick != nil {
			s.opts.OnTick(remaining)
		}
		return
	}
	s.remaining = 0
	s.timer = nil
	s.state = StateCommitted
	c := Commit{
		Platform:  s.platform,
		BlockType: s.blockType,
		Reason:    s.reason,
		At:        s.opts.Scheduler.Now(),
	}
	s.mu.Unlock()

	s.commit(c)
	close(s.done)
}

// commit records the bypass and unlocks the platform. Failed writes are
// logged; the unlock is granted regardless.
func (s *Session) commit(c Commit) {
	ctx := context.Background()
	ts := c.At.UnixMilli()
	if rec := s.opts.Recorder; rec != nil {
		if err := rec.AppendHistory(ctx, models.HistoryEntry{
			Timestamp: ts,
			Action:    models.ActionBypassWithReason,
			Reason:    c.Reason,
			Platform:  c.Platform,
			BlockType: c.BlockType,
		}); err != nil {
			logger.Errorf("Bypass history write failed for %s: %v", c.Platform, err)
		}
		if err := rec.AppendBypassReason(ctx, models.BypassReason{
			Timestamp: ts,
			Platform:  c.Platform,
			Reason:    c.Reason,
			BlockType: c.BlockType,
		}); err != nil {
			logger.Errorf("Bypass reason write failed for %s: %v", c.Platform, err)
		}
	}
	if u := s.opts.Unlocker; u != nil {
		if err := u.Set(ctx, c.Platform); err != nil {
			logger.Warnf("Session consent write failed for %s: %v", c.Platform, err)
		}
	}
	logger.L.Info().
		Str("session", s.id).
		Str("platform", string(c.Platform)).
		Str("blockType", string(c.BlockType)).
		Msg("bypass committed")
	if s.opts.OnCommit != nil {
		s.opts.OnCommit(c)
	}
}
