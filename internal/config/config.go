package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Store backends accepted by STORE_BACKEND
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreDynamoDB = "dynamodb"
)

// Config holds everything the server reads from the environment
type Config struct {
	Port    string
	DataDir string

	GeminiAPIKey       string
	GeminiModel        string
	GeminiRequestModel string

	StoreBackend  string
	DatabaseURL   string
	DynamoDBTable string

	TriageRulesPath string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	SlowRequestThreshold time.Duration
}

// FromEnv builds a Config from environment variables.
// A missing Gemini key is not an error here: the generate endpoints report it per request.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               getenv("PORT", "8080"),
		DataDir:            getenv("DATA_DIR", "data"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiRequestModel: getenv("GEMINI_REQUEST_MODEL", "gemini-1.5-flash"),
		StoreBackend:       strings.ToLower(getenv("STORE_BACKEND", StoreMemory)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DynamoDBTable:      getenv("DYNAMODB_TABLE", "ward_requests"),
		TriageRulesPath:    os.Getenv("TRIAGE_RULES"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
	}

	// Older deployments shipped the key under a misspelled name
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMNI_API_KEY")
	}

	threshold, err := time.ParseDuration(getenv("SLOW_REQUEST_THRESHOLD", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SLOW_REQUEST_THRESHOLD: %w", err)
	}
	cfg.SlowRequestThreshold = threshold

	switch cfg.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres store")
		}
	case StoreDynamoDB:
		if cfg.DynamoDBTable == "" {
			return nil, fmt.Errorf("DYNAMODB_TABLE environment variable is required for the dynamodb store")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (use: memory, postgres, dynamodb)", cfg.StoreBackend)
	}

	return cfg, nil
}

// GoogleAuthEnabled reports whether Google sign-in credentials are configured
func (c *Config) GoogleAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
