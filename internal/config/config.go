package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Log      LogConfig
	Redis    RedisConfig
	Import   ImportConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	Env         string
	MaxUploadMB int64
}

// DatabaseConfig holds PostgreSQL connection configuration.
// When Enabled is false the in-memory store is used instead.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	PoolMin  int
	PoolMax  int
	Enabled  bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// RedisConfig holds the run-lock connection. An empty Addr disables the lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// ImportConfig holds spreadsheet import settings.
type ImportConfig struct {
	UTMZone        int
	UTMHemisphere  string
	HeaderScanRows int
}

// Load reads configuration from an optional .env file and environment variables.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MAX_UPLOAD_MB", 32)
	v.SetDefault("DB_ENABLED", true)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "landsync")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_TTL", "30m")
	v.SetDefault("UTM_ZONE", 47)
	v.SetDefault("UTM_HEMISPHERE", "north")
	v.SetDefault("HEADER_SCAN_ROWS", 3)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Env:         v.GetString("ENV"),
			MaxUploadMB: v.GetInt64("MAX_UPLOAD_MB"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LockTTL:  v.GetDuration("LOCK_TTL"),
		},
		Import: ImportConfig{
			UTMZone:        v.GetInt("UTM_ZONE"),
			UTMHemisphere:  v.GetString("UTM_HEMISPHERE"),
			HeaderScanRows: v.GetInt("HEADER_SCAN_ROWS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
// It reports the first invalid key.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Port == "" {
			return fmt.Errorf("DB_PORT is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
		if c.Database.PoolMin < 0 {
			return fmt.Errorf("DB_POOL_MIN must be non-negative")
		}
		if c.Database.PoolMax < 1 {
			return fmt.Errorf("DB_POOL_MAX must be at least 1")
		}
		if c.Database.PoolMin > c.Database.PoolMax {
			return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
		}
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Log.Level)
	}

	if c.Redis.Addr != "" && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive when REDIS_ADDR is set")
	}

	if c.Import.UTMZone < 1 || c.Import.UTMZone > 60 {
		return fmt.Errorf("UTM_ZONE must be between 1 and 60")
	}
	switch strings.ToLower(c.Import.UTMHemisphere) {
	case "n", "north", "s", "south":
	default:
		return fmt.Errorf("UTM_HEMISPHERE must be north or south")
	}
	if c.Import.HeaderScanRows < 1 {
		return fmt.Errorf("HEADER_SCAN_ROWS must be at least 1")
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
