package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string
	Env  string

	// Upstream provider endpoints. PlayURL serves the demo bootstrap page,
	// APIURL is the session-scoped gameplay API.
	UpstreamPlayURL string
	UpstreamAPIURL  string
	BundleURL       string

	// Where the game client is pointed after content rewriting.
	CallbackBaseURL string
	EntrySessionURL string
	PublicBaseURL   string

	CurrencyCode   string
	CurrencySymbol string

	// StartingBalanceCents is credited to every account on first reference.
	StartingBalanceCents int64
	SessionTTL           time.Duration

	SigningSecret string
	JWTSecret     string

	OperatorKey    string
	OperatorSecret string

	// SessionCache selects the fast-lookup backend: "memory" or "redis".
	SessionCache string
	RedisURL     string
	RedisPass    string
	RedisDB      int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		UpstreamPlayURL:      getEnv("UPSTREAM_PLAY_URL", "https://bgaming-network.com/play"),
		UpstreamAPIURL:       getEnv("UPSTREAM_API_URL", "https://demo.bgaming-network.com/api"),
		BundleURL:            getEnv("UPSTREAM_BUNDLE_URL", "https://cdn.bgaming-network.com/html/AlohaKingElvis/basic/v3.1.100_4e305ee/bundle.js"),
		CallbackBaseURL:      getEnv("CALLBACK_BASE_URL", "http://localhost:8080/api/bgaming/callback"),
		EntrySessionURL:      getEnv("ENTRY_SESSION_URL", "http://localhost:8080/api/bgaming/entry-session"),
		PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		CurrencyCode:         getEnv("GAME_CURRENCY_CODE", "ZEROBYTE"),
		CurrencySymbol:       getEnv("GAME_CURRENCY_SYMBOL", "$"),
		StartingBalanceCents: getEnvInt64("STARTING_BALANCE_CENTS", 10000000),
		SigningSecret:        getEnv("SIGNING_SECRET", "someSecretKey"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		OperatorKey:          getEnv("OPERATOR_KEY", "demo_operator"),
		OperatorSecret:       getEnv("OPERATOR_SECRET", ""),
		SessionCache:         getEnv("SESSION_CACHE", "memory"),
		RedisURL:             getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:            getEnv("REDIS_PASS", ""),
		RedisDB:              int(getEnvInt64("REDIS_DB", 0)),
	}

	ttlMinutes := getEnvInt64("SESSION_TTL_MINUTES", 120)
	if ttlMinutes <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", ttlMinutes)
	}
	cfg.SessionTTL = time.Duration(ttlMinutes) * time.Minute

	if cfg.SessionCache != "memory" && cfg.SessionCache != "redis" {
		return nil, fmt.Errorf("invalid SESSION_CACHE %q, expected memory or redis", cfg.SessionCache)
	}

	if cfg.Env == "production" {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		if cfg.OperatorSecret == "" {
			return nil, fmt.Errorf("OPERATOR_SECRET is required in production")
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-jwt-secret"
	}
	if cfg.OperatorSecret == "" {
		cfg.OperatorSecret = "dev-operator-secret"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
