// Package config collects the credential surface of the orchestration
// subsystem: one environment variable per provider backend and one per
// optional skill integration. Presence of a variable is what gates a
// provider's IsAvailable; nothing here performs network probes.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names. One per backend, one per optional integration.
const (
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvSearchAPIKey    = "SEARCH_API_KEY"
)

// Config holds the resolved credential values. Empty string means unset.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	SearchAPIKey    string
}

// Load reads an optional .env file from the working directory, then resolves
// all known variables from the process environment. A missing .env file is
// not an error.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		AnthropicAPIKey: os.Getenv(EnvAnthropicAPIKey),
		OpenAIAPIKey:    os.Getenv(EnvOpenAIAPIKey),
		SearchAPIKey:    os.Getenv(EnvSearchAPIKey),
	}
}
