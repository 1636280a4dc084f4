package web

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the address service configuration.
type Config struct {
	Server ServerConfig `json:"server"`
	Parser ParserConfig `json:"parser"`
	Auth   AuthConfig   `json:"auth"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ParserConfig selects the tagging backend and model.
type ParserConfig struct {
	// Backend is "crf" or "libpostal".
	Backend string `json:"backend"`
	// Model overrides model resolution for the crf backend; empty
	// falls through the normal discovery order.
	Model string `json:"model"`
	// BatchWorkers bounds concurrency for /api/parse/batch.
	BatchWorkers int `json:"batch_workers"`
	// BatchLimit caps the number of addresses one batch request may
	// carry.
	BatchLimit int `json:"batch_limit"`
}

// AuthConfig contains API key settings.
type AuthConfig struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"api_key"`
}

// LoadConfig reads configuration from a JSON file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}
	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, err)
	}
	return config, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Parser: ParserConfig{
			Backend:      "crf",
			BatchWorkers: 8,
			BatchLimit:   1000,
		},
		Auth: AuthConfig{
			Enabled: false,
		},
	}
}
