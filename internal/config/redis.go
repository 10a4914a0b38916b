package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server used for rate limiting.  Addr
// takes precedence over Host and Port.  With neither set Redis is off.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"   envDefault:"0"`
	TLS      bool   `env:"REDIS_TLS"  envDefault:"false"`
}

// Address returns host:port or "" when Redis is not configured.
func (c RedisConfig) Address() string {
	if c.Addr != "" {
		return c.Addr
	}
	if c.Host != "" {
		return c.Host + ":" + c.Port
	}
	return ""
}

// NewRedisClient connects to the configured server.  It returns nil when
// Redis is not configured or does not answer a ping; callers degrade by
// disabling rate limiting.
func NewRedisClient(ctx context.Context, c RedisConfig) *redis.Client {
	addr := c.Address()
	if addr == "" {
		return nil
	}
	var tlsConf *tls.Config
	if c.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  c.Password,
		DB:        c.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
