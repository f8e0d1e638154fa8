// Package config collects every external configuration value into one object
// constructed at process start. Core packages receive values explicitly and
// never read the environment themselves.
package config

import (
	"os"
	"strconv"
)

// Config is the process-wide configuration.
type Config struct {
	ListenAddr string

	// AI providers. Provider identity is configuration, not a code path.
	PrimaryProvider   string
	SecondaryProvider string

	GoogleAPIKey   string
	GoogleModel    string
	GoogleEndpoint string

	AzureAPIKey     string
	AzureEndpoint   string
	AzureDeployment string
	AzureAPIVersion string

	// Persistence.
	DatabaseURL string
	JWTSecret   string

	// Artifact storage.
	ArtifactBucket string
	AWSRegion      string

	// Generation defaults.
	IncludeHeadOptions   bool
	DefaultMaxDurationMS int
}

// Load builds the configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		ListenAddr: getEnvWithDefault("LOADSCRIBE_LISTEN_ADDR", ":8080"),

		PrimaryProvider:   getEnvWithDefault("LOADSCRIBE_PRIMARY_PROVIDER", "google"),
		SecondaryProvider: os.Getenv("LOADSCRIBE_SECONDARY_PROVIDER"),

		GoogleAPIKey:   os.Getenv("GOOGLE_AI_API_KEY"),
		GoogleModel:    getEnvWithDefault("GOOGLE_AI_MODEL", "gemini-1.5-flash"),
		GoogleEndpoint: getEnvWithDefault("GOOGLE_AI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),

		AzureAPIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureDeployment: getEnvWithDefault("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		AzureAPIVersion: getEnvWithDefault("AZURE_OPENAI_API_VERSION", "2024-02-15-preview"),

		DatabaseURL: os.Getenv("LOADSCRIBE_DATABASE_URL"),
		JWTSecret:   os.Getenv("LOADSCRIBE_JWT_SECRET"),

		ArtifactBucket: os.Getenv("LOADSCRIBE_ARTIFACT_BUCKET"),
		AWSRegion:      getEnvWithDefault("AWS_REGION", "us-east-1"),

		IncludeHeadOptions:   getEnvBoolWithDefault("LOADSCRIBE_INCLUDE_HEAD_OPTIONS", false),
		DefaultMaxDurationMS: getEnvIntWithDefault("LOADSCRIBE_MAX_DURATION_MS", 5000),
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
