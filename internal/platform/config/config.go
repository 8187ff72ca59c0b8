// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr        string
	DatabaseURL string
	AutoMigrate bool

	Redis RedisConfig

	KafkaBrokers []string
	KafkaTopic   string

	// Empty signing key disables API auth (dev mode).
	JWTSigningKey string
	JWTIssuer     string

	LogLevel  string
	LogFormat string
}

// RedisConfig captures Redis connection settings. An empty URL means Redis
// is not configured.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from ARTSHOW_* environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("ARTSHOW_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("ARTSHOW_DATABASE_URL"),
		AutoMigrate:   os.Getenv("ARTSHOW_DB_AUTOMIGRATE") == "true",
		KafkaTopic:    envOr("ARTSHOW_KAFKA_TOPIC", "artshow.batch.processed"),
		JWTSigningKey: os.Getenv("ARTSHOW_JWT_SIGNING_KEY"),
		JWTIssuer:     envOr("ARTSHOW_JWT_ISSUER", "artshow"),
		LogLevel:      envOr("ARTSHOW_LOG_LEVEL", "info"),
		LogFormat:     envOr("ARTSHOW_LOG_FORMAT", "text"),
	}
	if brokers := os.Getenv("ARTSHOW_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	cfg.Redis = RedisConfig{
		URL:          os.Getenv("ARTSHOW_REDIS_URL"),
		PoolSize:     envIntOr("ARTSHOW_REDIS_POOL_SIZE", 10),
		MinIdleConns: envIntOr("ARTSHOW_REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
