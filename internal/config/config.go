// README: Config loader with env defaults for HTTP, backend, Redis, Firebase, and maps settings.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	Backend struct {
		BaseURL string
		Timeout time.Duration
	}
	Redis struct {
		Addr string
	}
	Firebase struct {
		ProjectID       string
		DatabaseURL     string
		CredentialsFile string
	}
	Maps struct {
		APIKey string
	}
	Session struct {
		TTL time.Duration
	}
	Flush struct {
		// Interval for the retry-queue and offline-location flushers.
		Interval time.Duration
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("KOLEKTA_HTTP_ADDR", ":8080")
	cfg.Backend.BaseURL = envOrDefault("KOLEKTA_BACKEND_URL", "http://localhost:8000/api")
	cfg.Backend.Timeout = envOrDefaultDuration("KOLEKTA_BACKEND_TIMEOUT", 10*time.Second)
	cfg.Redis.Addr = envOrDefault("KOLEKTA_REDIS_ADDR", "localhost:6379")
	cfg.Firebase.ProjectID = os.Getenv("KOLEKTA_FIREBASE_PROJECT_ID")
	cfg.Firebase.DatabaseURL = os.Getenv("KOLEKTA_FIREBASE_DATABASE_URL")
	cfg.Firebase.CredentialsFile = os.Getenv("KOLEKTA_FIREBASE_CREDENTIALS")
	cfg.Maps.APIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	cfg.Session.TTL = envOrDefaultDuration("KOLEKTA_SESSION_TTL", 12*time.Hour)
	cfg.Flush.Interval = envOrDefaultDuration("KOLEKTA_FLUSH_INTERVAL", 30*time.Second)
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
