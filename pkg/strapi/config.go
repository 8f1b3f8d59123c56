package strapi

import (
	"fmt"
	"time"
)

// Config represents the configuration for the Strapi client
type Config struct {
	// BaseURL is the Strapi root, e.g. https://cms.example.com
	BaseURL string

	// APIToken is sent as a bearer token. Empty means public access.
	APIToken string

	// Timeout bounds every HTTP call
	Timeout time.Duration

	// MaxFailures consecutive upstream failures open the breaker
	MaxFailures uint32

	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Timeout <= 0 {
		out.Timeout = 10 * time.Second
	}
	if out.MaxFailures == 0 {
		out.MaxFailures = 5
	}
	if out.OpenTimeout <= 0 {
		out.OpenTimeout = 30 * time.Second
	}
	return out
}
