package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/handmade-storefront/pkg/logger"
)

// Client represents a Stripe API client covering hosted checkout
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// CreateCheckoutSession creates a hosted payment page for the given items
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrInvalidRequest)
	}

	form := c.encodeSession(req)
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", form, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(resp, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: checkout session without id or url", ErrPaymentFailed)
	}
	return &session, nil
}

func (c *Client) encodeSession(req CheckoutSessionRequest) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = c.config.SuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = c.config.CancelURL
	}
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		form.Set("client_reference_id", req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
		form.Set(prefix+"[price_data][currency]", c.config.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		// Stripe only accepts absolute image URLs
		if strings.HasPrefix(item.ImageURL, "https://") || strings.HasPrefix(item.ImageURL, "http://") {
			form.Set(prefix+"[price_data][product_data][images][0]", item.ImageURL)
		}
	}
	return form
}

// doRequest performs an HTTP request to the Stripe API
func (c *Client) doRequest(ctx context.Context, method, path string, form url.Values, idempotencyKey string) ([]byte, error) {
	endpoint := c.config.BaseURL + path

	logger.Debug("Stripe request", map[string]interface{}{
		"method": method,
		"path":   path,
		"fields": len(form),
	})

	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrNetworkError, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrPaymentFailed, resp.StatusCode)
	}

	errorMsg := fmt.Sprintf("Stripe API error - Status: %d, %s", resp.StatusCode, errResp.String())
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, errorMsg)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errorMsg)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", ErrNetworkError, errorMsg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, errorMsg)
	}
}
