// Package initialize assembles the stores and services shared by the agent
// daemon and guardctl from an AppConfig.
package initialize

import (
	"context"
	"fmt"
	"time"

	"focus-guard/agent/internal/audit"
	"focus-guard/agent/internal/config"
	"focus-guard/agent/internal/configstore"
	"focus-guard/agent/internal/consent"
	"focus-guard/agent/internal/db"
	"focus-guard/agent/internal/kv"
	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/service"
	"focus-guard/agent/internal/state"
	"focus-guard/agent/internal/tracker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	Cfg     config.AppConfig
	DB      *gorm.DB
	Durable kv.Store
	Config  *configstore.Store
	Audit   *audit.Log
	Tracker *tracker.Tracker
}

// Build opens the durable store and the services layered on it.
func Build(cfg config.AppConfig) (*App, error) {
	gdb, err := db.Init(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	durable := kv.WithRetry(kv.NewGormStore(gdb), kv.RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.Backoff,
		Timeout:    cfg.OpTimeout,
	})
	store := configstore.New(durable)
	log := audit.New(store, durable)
	return &App{
		Cfg:     cfg,
		DB:      gdb,
		Durable: durable,
		Config:  store,
		Audit:   log,
		Tracker: tracker.New(durable, log, cfg.Debounce, cfg.Heartbeat),
	}, nil
}

// Session is the per-browsing-session part of the agent.
type Session struct {
	ID      string
	Consent *consent.Cache
	Guard   *service.Guard
	redis   *redis.Client
}

// NewSession starts a browsing session with a fresh id. Consent goes to redis
// when configured, otherwise it lives in memory only.
func (a *App) NewSession(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	state.SetSessionID(id)
	state.SetStartedAt(time.Now())

	var sessionStore kv.Store = kv.NewMemoryStore()
	var client *redis.Client
	if a.Cfg.RedisAddr != "" {
		c, err := kv.Dial(ctx, a.Cfg.RedisAddr, a.Cfg.RedisPassword, a.Cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		client = c
		sessionStore = kv.WithRetry(kv.NewRedisStore(c, id, a.Cfg.SessionTTL), kv.RetryPolicy{
			MaxRetries: a.Cfg.MaxRetries,
			Backoff:    a.Cfg.Backoff,
			Timeout:    a.Cfg.OpTimeout,
		})
		logger.Infof("Session store: redis %s", a.Cfg.RedisAddr)
	}
	c := consent.New(sessionStore)
	return &Session{
		ID:      id,
		Consent: c,
		Guard:   service.NewGuard(a.Config, a.Audit, c, service.Options{Countdown: a.Cfg.Countdown, IdleTTL: a.Cfg.IdleTTL}),
		redis:   client,
	}, nil
}

// Close cancels live bypass countdowns and releases the session store.
func (s *Session) Close() {
	s.Guard.CloseAll()
	if s.redis != nil {
		_ = s.redis.Close()
	}
}
