package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// LLM Configuration
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	OpenRouterAPIKey string
	DefaultModel     string
	JudgeModel       string
	// Agent run configuration
	AI21APIKey       string
	AI21BaseURL      string
	AgentPollTimeout time.Duration
	// Proof pipeline
	DefaultTheorem    string
	FanOutCap         int
	MaxRecomputeDepth int
	ValidationRPS     float64
	RequestTimeout    time.Duration
	// Analysis archive (disabled when DatabaseURL is empty)
	DatabaseURL string
	DBMaxConns  int
	TablePrefix string
	// Auth (disabled when AuthJWKSURL is empty)
	AuthJWKSURL string
	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		// LLM Configuration
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		DefaultModel:     getEnv("DEFAULT_MODEL", DefaultModel),
		JudgeModel:       getEnv("JUDGE_MODEL", DefaultJudgeModel),
		// Agent run configuration
		AI21APIKey:       getEnv("AI21_API_KEY", ""),
		AI21BaseURL:      getEnv("AI21_BASE_URL", "https://api.ai21.com"),
		AgentPollTimeout: getDuration("AGENT_POLL_TIMEOUT", 10*time.Minute),
		// Proof pipeline
		DefaultTheorem:    getEnv("DEFAULT_THEOREM", DefaultTheorem),
		FanOutCap:         getInt("FAN_OUT_CAP", DefaultFanOutCap),
		MaxRecomputeDepth: getInt("MAX_RECOMPUTE_DEPTH", 1),
		ValidationRPS:     getFloat("VALIDATION_RPS", 0),
		RequestTimeout:    getDuration("REQUEST_TIMEOUT", 0), // 0: no per-request deadline
		// Analysis archive
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBMaxConns:  getInt("DB_MAX_CONNS", 5),
		TablePrefix: getTablePrefix(env),
		// Auth
		AuthJWKSURL: getEnv("AUTH_JWKS_URL", ""),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
	}
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

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
