package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds the configuration for the portrait CLI
type Config struct {
	// Required
	ReplicateAPIToken string `env:"REPLICATE_API_TOKEN,required,notEmpty"`

	// Optional with defaults
	PortraitsRoot string `env:"REPLICATE_PORTRAIT_ROOT" envDefault:"./portraits"`
	DebugMode     bool   `env:"DEBUG_MODE" envDefault:"false"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ReplicateAPIToken == "" {
		return fmt.Errorf("Replicate API token is required")
	}

	// Create portraits root folder if it doesn't exist
	if err := os.MkdirAll(c.PortraitsRoot, 0755); err != nil {
		return fmt.Errorf("failed to create portraits root folder: %w", err)
	}

	return nil
}
