package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort                  = "8080"
	defaultDataAPIBaseURL        = "https://analyticsdata.googleapis.com/v1beta"
	defaultAdminAPIBaseURL       = "https://analyticsadmin.googleapis.com/v1beta"
	defaultRequestTimeoutSeconds = 30
	defaultBenchmarkSeconds      = 30.0
	defaultMaxConcurrentFetches  = 3
	defaultPropertiesPerBatch    = 10
	defaultNameCacheTTLMinutes   = 30
)

// Config carries every runtime setting, sourced from the environment.
type Config struct {
	Port        string
	Env         string
	DatabaseDSN string
	RedisAddr   string

	JWTSecret   string
	JWTAudience string

	DataAPIBaseURL  string
	AdminAPIBaseURL string
	RequestTimeout  time.Duration

	// BenchmarkSeconds is the engagement-time threshold a property's average
	// session must exceed to pass the TOS benchmark.
	BenchmarkSeconds float64

	// MaxConcurrentFetches bounds in-flight provider calls per batch.
	MaxConcurrentFetches int

	// PropertiesPerBatch is the provider-imposed cap on properties handled by
	// one orchestrator invocation; larger requests are chunked.
	PropertiesPerBatch int

	NameCacheTTL time.Duration
}

// Load reads configuration from the environment, falling back to defaults.
// A .env file is honored when present.
func Load() Config {
	_ = godotenv.Load(".env")

	return Config{
		Port:        getenv("PORT", defaultPort),
		Env:         getenv("APP_ENV", "development"),
		DatabaseDSN: getenv("DATABASE_DSN", "host=postgres user=postgres password=postgres dbname=actionableiq port=5432 sslmode=disable"),
		RedisAddr:   getenv("REDIS_ADDR", "redis:6379"),

		JWTSecret:   getenv("JWT_SECRET", "dev-secret"),
		JWTAudience: os.Getenv("JWT_AUDIENCE"),

		DataAPIBaseURL:  getenv("GA_DATA_API_BASE_URL", defaultDataAPIBaseURL),
		AdminAPIBaseURL: getenv("GA_ADMIN_API_BASE_URL", defaultAdminAPIBaseURL),
		RequestTimeout:  time.Duration(getenvInt("GA_REQUEST_TIMEOUT_SECONDS", defaultRequestTimeoutSeconds)) * time.Second,

		BenchmarkSeconds:     getenvFloat("TOS_BENCHMARK_SECONDS", defaultBenchmarkSeconds),
		MaxConcurrentFetches: getenvInt("MAX_CONCURRENT_FETCHES", defaultMaxConcurrentFetches),
		PropertiesPerBatch:   getenvInt("PROPERTIES_PER_BATCH", defaultPropertiesPerBatch),
		NameCacheTTL:         time.Duration(getenvInt("NAME_CACHE_TTL_MINUTES", defaultNameCacheTTLMinutes)) * time.Minute,
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
