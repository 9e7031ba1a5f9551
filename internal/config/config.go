package config

import (
	"os"
	"strconv"
	"strings"
)

// Config centralizes runtime settings for the API and workers.
type Config struct {
	Port string

	AuthToken          string
	CORSAllowedOrigins []string

	DatabaseURL string

	NewsAPIKey       string
	NewsAPIBaseURL   string
	NewsPageSize     int
	NewsTimeoutMS    int
	ExtractRPS       float64
	ExtractBurst     int
	ExtractTimeoutMS int

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAITimeoutMS  int
	OpenAIMaxRetries int

	MaxNewsCount  int
	MaxNewsLength int

	RatingCacheTTLSeconds int
	RatingCacheMaxEntries int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
	RedisDLQ      string
	RedisGroup    string
	RedisConsumer string

	RateLimitRPS   float64
	RateLimitBurst int

	WorkerEnabled bool
	WorkerCount   int

	// AllowDegradedProviders lets the process start without provider
	// credentials; every affected company then fails with a provider error
	// instead of the process refusing to boot. Meant for test environments.
	AllowDegradedProviders bool
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		AuthToken:          getEnv("API_AUTH_TOKEN", ""),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		NewsAPIKey:       getEnv("NEWS_API_KEY", ""),
		NewsAPIBaseURL:   getEnv("NEWS_API_BASE_URL", "https://newsapi.org/v2"),
		NewsPageSize:     getEnvInt("NEWS_PAGE_SIZE", 5),
		NewsTimeoutMS:    getEnvInt("NEWS_TIMEOUT_MS", 10000),
		ExtractRPS:       getEnvFloat("EXTRACT_RPS", 2),
		ExtractBurst:     getEnvInt("EXTRACT_BURST", 4),
		ExtractTimeoutMS: getEnvInt("EXTRACT_TIMEOUT_MS", 15000),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeoutMS:  getEnvInt("OPENAI_TIMEOUT_MS", 30000),
		OpenAIMaxRetries: getEnvInt("OPENAI_MAX_RETRIES", 2),

		MaxNewsCount:  getEnvInt("MAX_NEWS_COUNT", 10),
		MaxNewsLength: getEnvInt("MAX_NEWS_LENGTH", 1000),

		RatingCacheTTLSeconds: getEnvInt("RATING_CACHE_TTL_SECONDS", 900),
		RatingCacheMaxEntries: getEnvInt("RATING_CACHE_MAX_ENTRIES", 2000),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisStream:   getEnv("REDIS_STREAM", "rating_jobs"),
		RedisDLQ:      getEnv("REDIS_DLQ_STREAM", "rating_jobs_dlq"),
		RedisGroup:    getEnv("REDIS_GROUP", "rating_workers"),
		RedisConsumer: getEnv("REDIS_CONSUMER", "api-1"),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		WorkerEnabled: getEnvBool("WORKER_ENABLED", true),
		WorkerCount:   getEnvInt("WORKER_COUNT", 2),

		AllowDegradedProviders: getEnvBool("ALLOW_DEGRADED_PROVIDERS", false),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := make([]string, 0, 4)
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
