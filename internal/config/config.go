// Package config loads runtime settings for the taskauth server.
//
// Values are layered: built-in defaults, then an optional YAML file, then an
// optional .env file merged into the process environment, then TASKAUTH_*
// environment variables. Command-line flags (see [ParseFlags]) pick the files
// and may override the listen address last.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/taskauth"
	"github.com/MrEthical07/taskauth/internal/rate"
)

const EnvPrefix = "TASKAUTH_"

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds runtime settings for the server binary.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Store     StoreConfig     `yaml:"store" envPrefix:"STORE_"`
	Postgres  PostgresConfig  `yaml:"postgres" envPrefix:"POSTGRES_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Audit     AuditConfig     `yaml:"audit" envPrefix:"AUDIT_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type LogConfig struct {
	Format string `yaml:"format" env:"FORMAT"`
	Level  string `yaml:"level" env:"LEVEL"`
}

// StoreConfig picks the backend for user/task records and for the
// revocation ledger.
type StoreConfig struct {
	Records string `yaml:"records" env:"RECORDS"`
	Ledger  string `yaml:"ledger" env:"LEDGER"`
}

type PostgresConfig struct {
	DSN     string `yaml:"dsn" env:"DSN"`
	Migrate bool   `yaml:"migrate" env:"MIGRATE"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Prefix   string `yaml:"prefix" env:"PREFIX"`
}

// AuthConfig carries the credential secrets and lifetimes. Secrets have no
// default and must come from the file or the environment.
type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret" env:"ACCESS_SECRET"`
	RefreshSecret string        `yaml:"refresh_secret" env:"REFRESH_SECRET"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"ACCESS_TTL"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"REFRESH_TTL"`
	Leeway        time.Duration `yaml:"leeway" env:"LEEWAY"`
	Issuer        string        `yaml:"issuer" env:"ISSUER"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

type AuditConfig struct {
	Enabled    bool `yaml:"enabled" env:"ENABLED"`
	BufferSize int  `yaml:"buffer_size" env:"BUFFER_SIZE"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	Latency bool `yaml:"latency" env:"LATENCY"`
	OTel    bool `yaml:"otel" env:"OTEL"`
	// OTelInterval is how often the OpenTelemetry reader collects and
	// writes the instruments.
	OTelInterval time.Duration `yaml:"otel_interval" env:"OTEL_INTERVAL"`
}

type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// LockoutThreshold failed logins lock an email for LockoutDuration.
	// Zero disables the lockout.
	LockoutThreshold int           `yaml:"lockout_threshold" env:"LOCKOUT_THRESHOLD"`
	LockoutDuration  time.Duration `yaml:"lockout_duration" env:"LOCKOUT_DURATION"`
}

func (r RateLimitConfig) Lockout() rate.LockoutConfig {
	return rate.LockoutConfig{Threshold: r.LockoutThreshold, Duration: r.LockoutDuration}
}

// Defaults returns development defaults. Secrets are left empty on purpose.
func Defaults() Config {
	engine := taskauth.DefaultConfig()
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{Format: "json", Level: "info"},
		Store: StoreConfig{
			Records: BackendMemory,
			Ledger:  BackendMemory,
		},
		Postgres: PostgresConfig{Migrate: true},
		Redis:    RedisConfig{Prefix: "taskauth"},
		Auth: AuthConfig{
			AccessTTL:     engine.JWT.AccessTTL,
			RefreshTTL:    engine.JWT.RefreshTTL,
			SweepInterval: engine.Revocation.SweepInterval,
		},
		Audit:     AuditConfig{BufferSize: engine.Audit.BufferSize},
		Metrics:   MetricsConfig{Enabled: true, OTelInterval: time.Minute},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			LockoutThreshold: rate.DefaultLockout().Threshold,
			LockoutDuration:  rate.DefaultLockout().Duration,
		},
	}
}

// Engine converts the loaded settings into the engine configuration.
func (c *Config) Engine() taskauth.Config {
	out := taskauth.DefaultConfig()
	out.JWT.AccessSecret = []byte(c.Auth.AccessSecret)
	out.JWT.RefreshSecret = []byte(c.Auth.RefreshSecret)
	out.JWT.AccessTTL = c.Auth.AccessTTL
	out.JWT.RefreshTTL = c.Auth.RefreshTTL
	out.JWT.Leeway = c.Auth.Leeway
	out.JWT.Issuer = c.Auth.Issuer
	out.Revocation.SweepInterval = c.Auth.SweepInterval
	out.Audit.Enabled = c.Audit.Enabled
	out.Audit.BufferSize = c.Audit.BufferSize
	out.Metrics.Enabled = c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = c.Metrics.Latency
	return out
}

// Validate reports the first problem that should stop the server from starting.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http addr is required")
	}
	switch c.Store.Records {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("store records: unknown backend %q", c.Store.Records)
	}
	switch c.Store.Ledger {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("store ledger: unknown backend %q", c.Store.Ledger)
	}
	if (c.Store.Records == BackendPostgres || c.Store.Ledger == BackendPostgres) && c.Postgres.DSN == "" {
		return errors.New("postgres dsn is required for the postgres backend")
	}
	if c.Store.Ledger == BackendRedis && c.Redis.Addr == "" {
		return errors.New("redis addr is required for the redis ledger")
	}

	if c.RateLimit.LockoutThreshold < 0 || c.RateLimit.LockoutDuration < 0 {
		return errors.New("rate limit lockout must be >= 0")
	}
	if c.Metrics.OTel && c.Metrics.OTelInterval <= 0 {
		return errors.New("metrics otel interval must be > 0")
	}

	engine := c.Engine()
	if err := engine.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// RateLimitActive reports whether limits can be enforced. They need Redis.
func (c *Config) RateLimitActive() bool {
	return c.RateLimit.Enabled && c.Redis.Addr != ""
}
