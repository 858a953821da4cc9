package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	OpenAIKey      string
	OpenAIEndpoint string
	OpenAIModel    string
	Database       string
	Port           string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	cfg := Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIEndpoint: getEnv("OPENAI_API_ENDPOINT", "https://api.openai.com/v1"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		Database:       getEnv("DATABASE_PATH", "./data/sessions.db"),
		Port:           getEnv("PORT", "8080"),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		log.Fatalf("failed to ensure database dir %s: %v", cfg.Database, err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
