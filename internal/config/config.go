package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the recruit client and the local API
type Config struct {
	API      APIConfig
	Persist  PersistConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Profile  ProfileConfig
	Server   ServerConfig
	Fixtures FixturesConfig
	Log      LogConfig
}

// APIConfig holds backend connection settings
type APIConfig struct {
	BaseURL string
	Key     string
	Timeout time.Duration
}

// PersistConfig selects where the state snapshot lives
type PersistConfig struct {
	Backend       string
	Dir           string
	RootKey       string
	FlushInterval time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
}

// ProfileConfig holds the profile completeness policy
type ProfileConfig struct {
	Policy         string
	RederiveOnSave bool
}

// ServerConfig holds HTTP server configuration for the local API
type ServerConfig struct {
	Host string
	Port int
}

// FixturesConfig holds where the local API seeds its catalog from
type FixturesConfig struct {
	Dir string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Persistence backends
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Load loads configuration from environment variables. A .env file in the
// working directory is read first if present; real environment wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:3500"),
			Key:     getEnv("API_KEY", ""),
			Timeout: getEnvAsDuration("API_TIMEOUT", 30*time.Second),
		},
		Persist: PersistConfig{
			Backend:       strings.ToLower(getEnv("PERSIST_BACKEND", BackendFile)),
			Dir:           getEnv("PERSIST_DIR", defaultPersistDir()),
			RootKey:       getEnv("PERSIST_ROOT_KEY", "root"),
			FlushInterval: getEnvAsDuration("PERSIST_FLUSH_INTERVAL", 2*time.Second),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", ""),
		},
		Profile: ProfileConfig{
			Policy:         getEnv("PROFILE_POLICY", "standard"),
			RederiveOnSave: getEnvAsBool("PROFILE_REDERIVE_ON_SAVE", false),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 3500),
		},
		Fixtures: FixturesConfig{
			Dir: getEnv("FIXTURES_DIR", "./fixtures"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Persist.Backend {
	case BackendFile:
		if c.Persist.Dir == "" {
			return fmt.Errorf("persist directory is required for the file backend")
		}
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown persist backend: %q", c.Persist.Backend)
	}

	if c.Persist.RootKey == "" {
		return fmt.Errorf("persist root key is required")
	}

	if c.Persist.FlushInterval <= 0 {
		return fmt.Errorf("invalid flush interval: %s", c.Persist.FlushInterval)
	}

	switch strings.ToLower(c.Profile.Policy) {
	case "standard", "extended":
	default:
		return fmt.Errorf("unknown profile policy: %q", c.Profile.Policy)
	}

	return nil
}

// SlogLevel maps the configured level name; unknown names mean info
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultPersistDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "recruit"
	}
	return ".recruit"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
