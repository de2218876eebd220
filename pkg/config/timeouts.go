package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// TimeoutConfig holds the polling time limits
type TimeoutConfig struct {
	// MaxWait is how long to wait for a prediction to reach a terminal status
	MaxWait time.Duration `env:"REPLICATE_MAX_WAIT" envDefault:"600s"`

	// PollInterval is how often to check prediction status
	PollInterval time.Duration `env:"REPLICATE_POLL_INTERVAL" envDefault:"2s"`
}

// DefaultTimeouts returns the default timeout configuration
func DefaultTimeouts() TimeoutConfig {
	return TimeoutConfig{
		MaxWait:      600 * time.Second,
		PollInterval: 2 * time.Second,
	}
}

// LoadTimeouts loads timeout configuration from environment variables,
// falling back to defaults for anything unset or unparsable.
func LoadTimeouts() TimeoutConfig {
	cfg, err := env.ParseAs[TimeoutConfig]()
	if err != nil {
		return DefaultTimeouts()
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 600 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return cfg
}

// TestTimeouts returns timeout configuration suitable for testing
func TestTimeouts() TimeoutConfig {
	return TimeoutConfig{
		MaxWait:      200 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	}
}
