package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	DBDriver    string
	DBDSN       string
	LogPath     string
	LogLevel    string
	APIHost     string
	APIPort     int
	APISecret   string
	TokenTTLMin int

	RedisAddr     string
	RedisDB       int
	RedisPassword string
	SessionTTL    time.Duration

	MaxRetries int
	Backoff    time.Duration
	OpTimeout  time.Duration

	Countdown time.Duration
	IdleTTL   time.Duration
	Debounce  time.Duration
	Heartbeat time.Duration

	PolicyFile string
}

var cfg AppConfig

// DefaultPath is read when no -config flag is given.
const DefaultPath = "config/config.yaml"

// Init loads path (missing files are fine) on top of the defaults.
// Environment variables prefixed FOCUSGUARD_ override both.
func Init(path string) AppConfig {
	if path == "" {
		path = DefaultPath
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FOCUSGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults
	v.SetDefault("agent.db.driver", "sqlite")
	v.SetDefault("agent.db.dsn", filepath.Join(os.TempDir(), "focus-guard", "agent.db"))
	v.SetDefault("agent.log_level", "info")
	v.SetDefault("agent.api.host", "127.0.0.1")
	v.SetDefault("agent.api.port", 9480)
	v.SetDefault("agent.api.secret", "dev-secret")
	v.SetDefault("agent.api.token_ttl_min", 60)
	v.SetDefault("agent.session.redis_db", 0)
	v.SetDefault("agent.session.ttl", 24*time.Hour)
	v.SetDefault("agent.storage.max_retries", 2)
	v.SetDefault("agent.storage.backoff", 250*time.Millisecond)
	v.SetDefault("agent.storage.op_timeout", time.Duration(0))
	v.SetDefault("agent.bypass.countdown", 20*time.Second)
	v.SetDefault("agent.bypass.idle_ttl", 30*time.Minute)
	v.SetDefault("agent.tracker.debounce", 10*time.Second)
	v.SetDefault("agent.tracker.heartbeat", 5*time.Second)
	_ = v.ReadInConfig()

	cfg = AppConfig{
		DBDriver:      v.GetString("agent.db.driver"),
		DBDSN:         v.GetString("agent.db.dsn"),
		LogPath:       v.GetString("agent.log_path"),
		LogLevel:      v.GetString("agent.log_level"),
		APIHost:       v.GetString("agent.api.host"),
		APIPort:       v.GetInt("agent.api.port"),
		APISecret:     v.GetString("agent.api.secret"),
		TokenTTLMin:   v.GetInt("agent.api.token_ttl_min"),
		RedisAddr:     v.GetString("agent.session.redis_addr"),
		RedisDB:       v.GetInt("agent.session.redis_db"),
		RedisPassword: v.GetString("agent.session.redis_password"),
		SessionTTL:    v.GetDuration("agent.session.ttl"),
		MaxRetries:    v.GetInt("agent.storage.max_retries"),
		Backoff:       v.GetDuration("agent.storage.backoff"),
		OpTimeout:     v.GetDuration("agent.storage.op_timeout"),
		Countdown:     v.GetDuration("agent.bypass.countdown"),
		IdleTTL:       v.GetDuration("agent.bypass.idle_ttl"),
		Debounce:      v.GetDuration("agent.tracker.debounce"),
		Heartbeat:     v.GetDuration("agent.tracker.heartbeat"),
		PolicyFile:    v.GetString("agent.policy_file"),
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.TokenTTLMin <= 0 {
		cfg.TokenTTLMin = 60
	}
	return cfg
}

func Get() AppConfig { return cfg }
