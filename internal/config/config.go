package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string

	// Text generation configuration
	TextGenProvider  string // "openai" or "lorem"
	OpenAIAPIKey     string
	TextGenModel     string
	TextGenMaxTokens int

	// MockDelay slows the lorem provider down to make in-flight runs
	// observable from a polling client.
	MockDelay time.Duration

	// Logging
	LogDir      string // when set, logs also go to timestamped files in this dir
	MaxLogFiles int
	Debug       bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		// Text generation configuration
		TextGenProvider:  getEnv("TEXTGEN_PROVIDER", "lorem"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		TextGenModel:     getEnv("TEXTGEN_MODEL", "gpt-4o-mini"),
		TextGenMaxTokens: getEnvInt("TEXTGEN_MAX_TOKENS", 1024),
		MockDelay:        getEnvDuration("TEXTGEN_MOCK_DELAY", 2*time.Second),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		MaxLogFiles: getEnvInt("MAX_LOG_FILES", 10),
		Debug:       getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
