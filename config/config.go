package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	AppName     = "snap2cash"
	EnvFileName = "config.env"
)

// LoadEnvFile loads environment variables from the config file in the
// user's config directory. Errors are ignored since the file may not
// exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Config carries credentials and settings for the analysis service.
// It is built once in main and injected; adapters never read the
// process environment themselves.
type Config struct {
	GeminiAPIKey  string
	SerpAPIKey    string
	SearchAPIKey  string
	GCSBucket     string
	HistoryDBPath string
}

// FromEnv reads the configuration from environment variables.
func FromEnv() Config {
	return Config{
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		SerpAPIKey:    os.Getenv("SERPAPI_API_KEY"),
		SearchAPIKey:  os.Getenv("SEARCH_API_KEY"),
		GCSBucket:     getenvDefault("GCS_BUCKET_NAME", "snap2cash-uploads"),
		HistoryDBPath: getenvDefault("HISTORY_DB_PATH", "history.db"),
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
