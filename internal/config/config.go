// Package config loads server configuration from the environment, the
// same os.Getenv-plus-default style as the teacher's
// internal/web-app/main.go (no envconfig/viper layer — the teacher
// never pulls one in, so neither do we).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/studybuddy/eventcore/internal/store/postgres"
)

// Config is the ingestion server's full runtime configuration.
type Config struct {
	Port            string
	DatabaseDSN     string
	RequestTimeout  time.Duration
	Store           postgres.Config
}

// Load reads Config from the process environment, applying the same
// defaults the teacher's web-app hardcodes inline.
func Load() Config {
	return Config{
		Port:           getenv("PORT", "8080"),
		DatabaseDSN:    buildDSN(),
		RequestTimeout: getenvDuration("REQUEST_TIMEOUT_MS", 15*time.Second),
		Store: postgres.Config{
			MaxConns:        int32(getenvInt("DB_MAX_CONNS", 20)),
			MinConns:        int32(getenvInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime: getenvDuration("DB_MAX_CONN_LIFETIME_MS", 10*time.Minute),
			MaxRetries:      getenvInt("DB_MAX_RETRIES", 3),
			RetryBaseDelay:  getenvDuration("DB_RETRY_BASE_DELAY_MS", 20*time.Millisecond),
		},
	}
}

func buildDSN() string {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return dsn
	}
	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	user := getenv("DB_USER", "eventcore")
	password := getenv("DB_PASSWORD", "eventcore")
	name := getenv("DB_NAME", "eventcore")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
