package stripe

import "fmt"

// Config represents the configuration for the Stripe client
type Config struct {
	// SecretKey is the Stripe secret API key (sk_...)
	SecretKey string

	// BaseURL is the Stripe API base URL
	BaseURL string

	// SuccessURL is where Stripe sends the shopper after paying. It should
	// carry session_id={CHECKOUT_SESSION_ID}.
	SuccessURL string

	// CancelURL is where Stripe sends the shopper on cancel
	CancelURL string

	// Currency is the ISO code used for every line item
	Currency string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: secret key is required", ErrInvalidConfig)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if c.SuccessURL == "" {
		return fmt.Errorf("%w: success URL is required", ErrInvalidConfig)
	}
	if c.CancelURL == "" {
		return fmt.Errorf("%w: cancel URL is required", ErrInvalidConfig)
	}
	if c.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidConfig)
	}
	return nil
}
