package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	// Dataset store (external document-indexing service)
	DatasetStoreURL    string
	DatasetStoreAPIKey string
	CORSOrigins        string
	TablePrefix        string
	LogDir             string // empty = stdout only
	Debug              bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        env,
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DatasetStoreURL:    getEnv("DATASET_STORE_URL", "http://localhost:9380"),
		DatasetStoreAPIKey: getEnv("DATASET_STORE_API_KEY", ""),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:        getTablePrefix(env),
		LogDir:             getEnv("LOG_DIR", ""),
		Debug:              getEnv("DEBUG", getDefaultDebug(env)) == "true",
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
