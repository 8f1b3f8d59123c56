package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/config"
	"github.com/ikkim/handmade-storefront/internal/app/controller"
	"github.com/ikkim/handmade-storefront/internal/app/service"
	"github.com/ikkim/handmade-storefront/internal/cart"
	"github.com/ikkim/handmade-storefront/internal/middleware"
	ws "github.com/ikkim/handmade-storefront/internal/websocket"
	"github.com/ikkim/handmade-storefront/pkg/mailer"
	"github.com/ikkim/handmade-storefront/pkg/payment/stripe"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(t *testing.T) *Router {
	cms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [], "meta": {"pagination": {"page": 1, "pageSize": 24, "pageCount": 0, "total": 0}}}`)
	}))
	t.Cleanup(cms.Close)

	cfg := &config.Config{
		Server:  config.ServerConfig{GinMode: gin.TestMode},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Webhook: config.WebhookConfig{Secret: "hook-secret"},
	}

	strapiClient, err := strapi.NewClient(strapi.Config{BaseURL: cms.URL})
	require.NoError(t, err)
	stripeClient, err := stripe.NewClient(stripe.Config{
		SecretKey:  "sk_test",
		BaseURL:    "http://127.0.0.1:1",
		SuccessURL: "http://localhost:3000/done?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:3000/cart",
		Currency:   "usd",
	})
	require.NoError(t, err)

	registry := cart.NewRegistry(cart.NopPersister{}, 0)
	t.Cleanup(registry.Flush)
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	catalog := service.NewCatalogService(strapiClient, cms.URL)
	cartService := service.NewCartService(registry, catalog, hub)

	return NewRouter(
		controller.NewCatalogController(catalog),
		controller.NewCartController(cartService, hub, cfg.CORS.AllowedOrigins),
		controller.NewCheckoutController(service.NewCheckoutService(registry, stripeClient, strapiClient)),
		controller.NewContentController(service.NewContentService(strapiClient, cms.URL)),
		controller.NewWebhookController(service.NewNotificationService(mailer.NewLogMailer(), nil, "", 0)),
		middleware.NewCartSessionMiddleware("router-test-secret", "cart_session", time.Hour, false),
		cfg,
	)
}

func TestRouter_Health(t *testing.T) {
	r := setupRouterTest(t)
	r.AddHealthCheck("redis", func(ctx context.Context) error { return nil })
	engine := r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"ok"`)

	r.AddHealthCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") })
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_CartIssuesSessionCookie(t *testing.T) {
	engine := setupRouterTest(t).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cart/badge", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 0}`, w.Body.String())

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "cart_session" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRouter_ProductsArePublic(t *testing.T) {
	engine := setupRouterTest(t).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestRouter_WebhookRequiresSecret(t *testing.T) {
	engine := setupRouterTest(t).Setup()
	body := `{"event":"entry.update","model":"order","entry":{}}`

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/strapi", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/strapi", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer hook-secret")
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ValidationUsesJSONFieldNames(t *testing.T) {
	engine := setupRouterTest(t).Setup()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"email":"ada@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "address_line1")
	assert.Contains(t, resp.Fields, "customer_name")
}
