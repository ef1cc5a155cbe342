package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"`

	Postgres Postgres
	Redis    Redis
	HTTP     HTTP
	Prices   Prices
}

type Postgres struct {
	URL             string        `env:"DATABASE_URL"`
	MaxConns        int32         `env:"PG_MAX_CONNS" envDefault:"25"`
	MinConns        int32         `env:"PG_MIN_CONNS" envDefault:"5"`
	MaxConnLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"30m"`
}

type Redis struct {
	Addr     string `env:"REDIS_URL" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type HTTP struct {
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

type Prices struct {
	QuoteAPIURL     string        `env:"QUOTE_API_URL"`
	QuoteAPIKey     string        `env:"QUOTE_API_KEY"`
	QuoteTimeout    time.Duration `env:"QUOTE_API_TIMEOUT" envDefault:"10s"`
	RefreshInterval time.Duration `env:"PRICE_REFRESH_INTERVAL" envDefault:"5m"`
	CacheTTL        time.Duration `env:"PRICE_CACHE_TTL" envDefault:"60s"`
}

// Load loads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.Postgres.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// The quote API is required in production; in development the price
	// updater is simply disabled when unset.
	if c.Prices.QuoteAPIURL == "" && c.IsProduction() {
		return fmt.Errorf("QUOTE_API_URL is required in production")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
