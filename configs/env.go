package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the validation service
type Config struct {
	// Server
	Port   string
	APIKey string // API key for authenticating requests

	// MySQL Database
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSL      bool

	// Upload Settings
	UploadDir     string
	MaxUploadSize int64

	// Pipeline Settings
	FailureThreshold float64
	ListLimit        int
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first when present, for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Load secrets using GetSecret (tries mounted file first, then env var)
	apiKey, _ := GetSecret("API_KEY")

	// Database password (optional for local dev)
	dbPassword, _ := GetSecret("DB_PASSWORD")

	cfg := &Config{
		// Server
		Port:   getEnv("PORT", "8080"),
		APIKey: apiKey,

		// Database
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", "pharmaforge_local"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: dbPassword,
		DBSSL:      getEnvBool("DB_SSL", false),

		// Uploads
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_SIZE", 10*1024*1024)),

		// Pipeline Settings
		FailureThreshold: getEnvFloat("FAILURE_THRESHOLD", 0.5),
		ListLimit:        getEnvInt("LIST_LIMIT", 50),
	}

	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	return cfg, nil
}

// GetSecret reads a secret from a mounted file at /secrets/<name>, falling
// back to the environment variable of the same name.
func GetSecret(name string) (string, error) {
	path := "/secrets/" + name
	if data, err := os.ReadFile(path); err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret %s not found", name)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
