// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  It is built once in
// main and passed to the components that need it.
type Config struct {
	Env            string `env:"APP_ENV"              envDefault:"production"` // local, development or production
	Port           string `env:"APP_PORT"             envDefault:"5000"`
	SecretKey      string `env:"SECRET_KEY"           envDefault:"a_very_secret_key_that_should_be_changed"` // signs access tokens
	DatabaseURI    string `env:"DATABASE_URI"         envDefault:"sqlite://site.db"`                         // mysql://... or sqlite://path
	AccessTTLMin   int    `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"720"`
	BcryptCost     int    `env:"BCRYPT_COST"          envDefault:"12"`
	CookieSecure   bool   `env:"COOKIE_SECURE"        envDefault:"false"`
	AMQPURL        string `env:"AMQP_URL"` // empty disables event publishing
	ReceiptLogPath string `env:"RECEIPT_LOG_PATH"     envDefault:"logs/payments.log"`

	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.AMQPURL == "" {
		cfg.AMQPURL = os.Getenv("RABBITMQ_URL")
	}
	if cfg.SecretKey == "" {
		return Config{}, fmt.Errorf("SECRET_KEY must not be empty")
	}
	cfg.RateLimit.normalize()
	return cfg, nil
}

// MustLoad is like Load but exits the process on error.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}
