package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"member-auth-service"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines the token keys, their lifetimes in seconds, and password hashing cost.
type AuthConfig struct {
	AccessTokenKey         string `env:"JWT_KEY_ACCESS" envDefault:"dev-access-secret"`
	AccessTokenTTLSeconds  int64  `env:"JWT_MAX_AGE_ACCESS" envDefault:"1800"`
	RefreshTokenKey        string `env:"JWT_KEY_REFRESH" envDefault:"dev-refresh-secret"`
	RefreshTokenTTLSeconds int64  `env:"JWT_MAX_AGE_REFRESH" envDefault:"604800"`
	BcryptCost             int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// RateLimitConfig tunes the per-IP limiter and the sign-in attempt limiter.
type RateLimitConfig struct {
	RequestsPerSecond   float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	Burst               int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	SignInMaxAttempts   int           `env:"SIGNIN_MAX_ATTEMPTS" envDefault:"5"`
	SignInAttemptWindow time.Duration `env:"SIGNIN_ATTEMPT_WINDOW" envDefault:"15m"`
}

// EventsConfig holds the optional broker endpoint for member events.
type EventsConfig struct {
	AMQPURL string `env:"AMQP_URL"`
	Queue   string `env:"AMQP_MEMBER_EVENTS_QUEUE" envDefault:"member.events"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would let the two token kinds be confused.
func (c *Config) Validate() error {
	a := c.Auth
	if a.AccessTokenKey == "" || a.RefreshTokenKey == "" {
		return errors.New("JWT_KEY_ACCESS and JWT_KEY_REFRESH are required")
	}
	if a.AccessTokenKey == a.RefreshTokenKey {
		return errors.New("JWT_KEY_ACCESS and JWT_KEY_REFRESH must differ")
	}
	if a.AccessTokenTTLSeconds <= 0 || a.RefreshTokenTTLSeconds <= 0 {
		return errors.New("JWT_MAX_AGE_ACCESS and JWT_MAX_AGE_REFRESH must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLSeconds) * time.Second
}

// RefreshTokenTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLSeconds) * time.Second
}
