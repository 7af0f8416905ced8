// Package config reads the forecast server settings from the environment,
// with an optional .env file underneath.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	// Backend selects the cache store: "redis" or "memory".
	Backend   string
	Namespace string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel          string
	SentryDSN         string
	SentryEnvironment string
}

// Load merges dotenv (if it exists) with the process environment.
// Process variables win over the file.
func Load(dotenv string) (Config, error) {
	file := map[string]string{}
	if dotenv != "" {
		m, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", dotenv, err)
		}
	}
	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v := file[key]; v != "" {
			return v
		}
		return def
	}

	c := Config{
		ListenAddr:        get("LISTEN_ADDR", ":8080"),
		Backend:           strings.ToLower(get("CACHE_BACKEND", "redis")),
		Namespace:         get("CACHE_NAMESPACE", "forecast_"),
		RedisAddr:         get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     get("REDIS_PASSWORD", ""),
		LogLevel:          strings.ToLower(get("LOG_LEVEL", "info")),
		SentryDSN:         get("SENTRY_DSN", ""),
		SentryEnvironment: get("SENTRY_ENVIRONMENT", ""),
	}
	db, err := strconv.Atoi(get("REDIS_DB", "0"))
	if err != nil || db < 0 {
		return Config{}, fmt.Errorf("config: REDIS_DB must be a non-negative integer, got %q", get("REDIS_DB", ""))
	}
	c.RedisDB = db

	switch c.Backend {
	case "redis", "memory":
	default:
		return Config{}, fmt.Errorf("config: unknown CACHE_BACKEND %q", c.Backend)
	}
	return c, nil
}
