package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	ServerPort  string

	AIProvider string
	OpenAIKey  string
	AIModel    string
	AIBaseURL  string

	LineChannelSecret string
	LineChannelToken  string
	LineChannelID     string
	// LineChannelKey is the RSA private key in JWK JSON form for channel
	// access token v2.1 issuance. Optional when a static token is configured.
	LineChannelKey   string
	LineChannelKeyID string

	OpenWeatherKey string
	WeatherLat     string
	WeatherLon     string

	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int

	// DishTablesPath optionally points at a YAML file overriding the built-in
	// fallback-dish and keyword tables.
	DishTablesPath string

	WebhookRateLimit string

	WorkerDebugMode bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		AIProvider:        getEnv("AI_PROVIDER", "openai"),
		OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
		AIModel:           getEnv("AI_MODEL", ""),
		AIBaseURL:         getEnv("AI_BASE_URL", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelToken:  getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelID:     getEnv("LINE_CHANNEL_ID", ""),
		LineChannelKey:    getEnv("LINE_CHANNEL_PRIVATE_KEY", ""),
		LineChannelKeyID:  getEnv("LINE_CHANNEL_KEY_ID", ""),
		OpenWeatherKey:    getEnv("OPENWEATHER_API_KEY", ""),
		WeatherLat:        getEnv("WEATHER_LAT", "35.6762"),
		WeatherLon:        getEnv("WEATHER_LON", "139.6503"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:  getEnvInt("RABBITMQ_PREFETCH", 1),
		DishTablesPath:    getEnv("DISH_TABLES_PATH", ""),
		WebhookRateLimit:  getEnv("WEBHOOK_RATE_LIMIT", "10-S"),
		WorkerDebugMode:   getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:   getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for job queueing (recommendation generation runs through RabbitMQ)")
	}

	if cfg.LineChannelSecret == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_SECRET is required for webhook signature verification")
	}

	if cfg.LineChannelToken == "" && (cfg.LineChannelID == "" || cfg.LineChannelKey == "") {
		return nil, fmt.Errorf("either LINE_CHANNEL_ACCESS_TOKEN or LINE_CHANNEL_ID + LINE_CHANNEL_PRIVATE_KEY must be configured")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
