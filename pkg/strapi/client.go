package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/sony/gobreaker/v2"
)

// Client is a Strapi v4 REST client. Every call goes through one circuit
// breaker; client-side errors (4xx) do not count against it.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a new Strapi client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "strapi",
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    breaker,
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// ListProducts returns one page of products, optionally filtered by category slug
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ListResponse[Product], error) {
	query := url.Values{}
	query.Set("populate", "*")
	query.Set("sort", "createdAt:desc")
	setPagination(query, q.Page, q.PageSize)
	if q.Category != "" {
		query.Set("filters[category][slug][$eq]", q.Category)
	}

	var out ListResponse[Product]
	if err := c.get(ctx, "/api/products", query, &out); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &out, nil
}

// GetProductBySlug returns the product with the given slug
func (c *Client) GetProductBySlug(ctx context.Context, slug string) (*Entity[Product], error) {
	product, err := firstBySlug[Product](ctx, c, "/api/products", slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %q: %w", slug, err)
	}
	return product, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Entity[Category], error) {
	query := url.Values{}
	query.Set("sort", "name:asc")

	var out ListResponse[Category]
	if err := c.get(ctx, "/api/categories", query, &out); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return out.Data, nil
}

func (c *Client) ListFAQs(ctx context.Context) ([]Entity[FAQ], error) {
	query := url.Values{}
	query.Set("sort", "order:asc")
	setPagination(query, 1, 100)

	var out ListResponse[FAQ]
	if err := c.get(ctx, "/api/faqs", query, &out); err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	return out.Data, nil
}

func (c *Client) GetLegalPage(ctx context.Context, slug string) (*Entity[LegalPage], error) {
	page, err := firstBySlug[LegalPage](ctx, c, "/api/legal-pages", slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get legal page %q: %w", slug, err)
	}
	return page, nil
}

func (c *Client) ListArticles(ctx context.Context, page, pageSize int) (*ListResponse[Article], error) {
	query := url.Values{}
	query.Set("populate", "cover")
	query.Set("sort", "publishedAt:desc")
	setPagination(query, page, pageSize)

	var out ListResponse[Article]
	if err := c.get(ctx, "/api/articles", query, &out); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return &out, nil
}

func (c *Client) GetArticleBySlug(ctx context.Context, slug string) (*Entity[Article], error) {
	article, err := firstBySlug[Article](ctx, c, "/api/articles", slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get article %q: %w", slug, err)
	}
	return article, nil
}

// CreateContactMessage stores a contact form submission
func (c *Client) CreateContactMessage(ctx context.Context, msg ContactMessage) error {
	var out SingleResponse[ContactMessage]
	if err := c.post(ctx, "/api/contact-messages", msg, &out); err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

// CreateOrder stores a new order and returns the created record
func (c *Client) CreateOrder(ctx context.Context, order Order) (*Entity[Order], error) {
	var out SingleResponse[Order]
	if err := c.post(ctx, "/api/orders", order, &out); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if out.Data == nil {
		return nil, fmt.Errorf("failed to create order: %w: empty data", ErrInvalidResponse)
	}
	return out.Data, nil
}

func firstBySlug[T any](ctx context.Context, c *Client, path, slug string) (*Entity[T], error) {
	query := url.Values{}
	query.Set("filters[slug][$eq]", slug)
	query.Set("populate", "*")
	setPagination(query, 1, 1)

	var out ListResponse[T]
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, ErrNotFound
	}
	return &out.Data[0], nil
}

func setPagination(query url.Values, page, pageSize int) {
	if page > 0 {
		query.Set("pagination[page]", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// post wraps payload in Strapi's {"data": ...} envelope
func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, map[string]interface{}{"data": payload})
	if err != nil {
		return err
	}
	return decode(body, out)
}

func decode(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// doRequest performs one HTTP request through the circuit breaker
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, method, path, query, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return body, err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Strapi request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUnavailable, err)
	}

	logger.Debug("Strapi request completed", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	})

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	detail := fmt.Sprintf("status %d", resp.StatusCode)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		detail = errResp.String()
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, detail)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, detail)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, detail)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, detail)
	}
}
