// Package config provides configuration for agentforge.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// LLM settings
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTimeout     time.Duration
	EmbeddingModel string

	// Vector store
	QdrantURL string

	// Tool settings
	HTTPFetchTimeout time.Duration

	// Reasoning loop
	MaxLoopCycles int

	// Dispatcher
	WorkerCount int
	QueueSize   int

	// Conversation context
	HistoryWindow int

	// Progress notifier
	NotifyInterval time.Duration
	NotifyMaxPolls int
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:      getEnv("DATABASE_URL", "file:agentforge.db?cache=shared&mode=rwc"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:       time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		QdrantURL:        getEnv("QDRANT_URL", ""),
		HTTPFetchTimeout: time.Duration(getEnvInt("HTTP_FETCH_TIMEOUT_MS", 10000)) * time.Millisecond,
		MaxLoopCycles:    getEnvInt("MAX_LOOP_CYCLES", 10),
		WorkerCount:      getEnvInt("WORKER_COUNT", 4),
		QueueSize:        getEnvInt("QUEUE_SIZE", 64),
		HistoryWindow:    getEnvInt("HISTORY_WINDOW", 10),
		NotifyInterval:   time.Duration(getEnvInt("NOTIFY_INTERVAL_MS", 1000)) * time.Millisecond,
		NotifyMaxPolls:   getEnvInt("NOTIFY_MAX_POLLS", 120),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
