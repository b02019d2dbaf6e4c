// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds the settings shared by every command.
type Config struct {
	DBDriver      string // sqlite | postgres | mongo
	DB            string // SQLite path, Postgres DSN or Mongo URI; empty means the default SQLite path
	MongoDatabase string

	HTTPAddr        string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	LogMode         string // dev | prod

	SessionSize int

	RedisURL string
	LeaseTTL time.Duration

	AMQPURL      string
	AMQPExchange string
}

// Load reads files (default ".env") when present, then the CASEQUIZ_*
// environment variables. Variables already set win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := &Config{
		DBDriver:      getenvDefault("CASEQUIZ_DB_DRIVER", DriverSQLite),
		DB:            os.Getenv("CASEQUIZ_DB"),
		MongoDatabase: getenvDefault("CASEQUIZ_MONGO_DATABASE", "casequiz"),
		HTTPAddr:      getenvDefault("CASEQUIZ_HTTP_ADDR", ":8080"),
		LogMode:       getenvDefault("CASEQUIZ_LOG_MODE", "dev"),
		CORSOrigins:   splitList(os.Getenv("CASEQUIZ_CORS_ORIGINS")),
		RedisURL:      os.Getenv("CASEQUIZ_REDIS_URL"),
		AMQPURL:       os.Getenv("CASEQUIZ_AMQP_URL"),
		AMQPExchange:  getenvDefault("CASEQUIZ_AMQP_EXCHANGE", "casequiz.events"),
	}

	var err error
	if cfg.SessionSize, err = getInt("CASEQUIZ_SESSION_SIZE", 12); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("CASEQUIZ_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.LeaseTTL, err = getDuration("CASEQUIZ_LEASE_TTL", 2*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field combinations.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres, DriverMongo:
		if c.DB == "" {
			return fmt.Errorf("config: CASEQUIZ_DB is required for driver %q", c.DBDriver)
		}
	default:
		return fmt.Errorf("config: unknown CASEQUIZ_DB_DRIVER %q", c.DBDriver)
	}
	if c.LogMode != "dev" && c.LogMode != "prod" {
		return fmt.Errorf("config: CASEQUIZ_LOG_MODE must be dev or prod, got %q", c.LogMode)
	}
	return nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getInt(k string, fallback int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", k, v, err)
	}
	return n, nil
}

func getDuration(k string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid duration: %w", k, v, err)
	}
	return d, nil
}
