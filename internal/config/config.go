package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // players often run on images without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// Config holds environment-based settings
type Config struct {
	Environment   string
	ServerAddress string
	JWTSecret     string

	StoreBackend   string
	DatabaseURL    string
	MigrationsPath string
	RedisAddress   string
	RedisUsername  string
	RedisPassword  string
	SQLitePath     string

	MQTTBrokerURL string

	DeviceID          string
	DeviceName        string
	DeviceLocation    string
	Timezone          *time.Location
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	DeviceStaleAfter  time.Duration

	LogLevel string
	LogFile  string
}

// Development reports whether APP_ENV selects local development.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not parse .env file")
	}

	cfg := &Config{
		Environment:    getenv("APP_ENV", "production"),
		ServerAddress:  getenv("SERVER_ADDRESS", ":8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StoreBackend:   strings.ToLower(getenv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "./migrations"),
		RedisAddress:   os.Getenv("REDIS_ADDRESS"),
		RedisUsername:  os.Getenv("REDIS_USERNAME"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		SQLitePath:     getenv("SQLITE_PATH", "./data/signton.db"),
		MQTTBrokerURL:  os.Getenv("MQTT_BROKER_URL"),
		DeviceID:       os.Getenv("DEVICE_ID"),
		DeviceName:     getenv("DEVICE_NAME", "New Screen"),
		DeviceLocation: getenv("DEVICE_LOCATION", "Unassigned"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
	}

	var err error
	if cfg.Timezone, err = time.LoadLocation(getenv("TIMEZONE", "Local")); err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	if cfg.PollInterval, err = duration("POLL_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.HeartbeatInterval, err = duration("HEARTBEAT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DeviceStaleAfter, err = duration("DEVICE_STALE_AFTER", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 || cfg.PollInterval > 2*time.Second {
		return nil, fmt.Errorf("POLL_INTERVAL must be within (0, 2s], got %s", cfg.PollInterval)
	}
	if cfg.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("HEARTBEAT_INTERVAL must be positive, got %s", cfg.HeartbeatInterval)
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if cfg.RedisAddress == "" {
			return nil, fmt.Errorf("REDIS_ADDRESS is required for the redis backend")
		}
	default:
		return nil, fmt.Errorf("STORE_BACKEND %q is not one of memory, postgres, redis, sqlite", cfg.StoreBackend)
	}
	return cfg, nil
}

// RequireServer checks the settings only the API server needs.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// RequirePlayer checks the settings only the player needs.
func (c *Config) RequirePlayer() error {
	if c.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	if c.StoreBackend == BackendMemory {
		return fmt.Errorf("the player needs a shared STORE_BACKEND, not %q", BackendMemory)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
