package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config gathers everything read from the environment. A .env file, if
// present, is loaded by main before this runs.
type Config struct {
	Port         string
	DatabaseURL  string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	JWTSecret    string
	AllowOrigins string
	Development  bool
}

// Load reads the environment and applies defaults. DATABASE_URL and
// JWT_SECRET have no sane default and are required.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AllowOrigins: getenv("ALLOW_ORIGINS", "http://localhost:3000"),
		Development:  os.Getenv("APP_ENV") != "production",
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
