package router

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/handmade-storefront/config"
	"github.com/ikkim/handmade-storefront/internal/app/controller"
	"github.com/ikkim/handmade-storefront/internal/middleware"
)

type Router struct {
	catalogController  *controller.CatalogController
	cartController     *controller.CartController
	checkoutController *controller.CheckoutController
	contentController  *controller.ContentController
	webhookController  *controller.WebhookController
	cartSession        *middleware.CartSessionMiddleware
	config             *config.Config
	healthChecks       map[string]HealthCheck
}

// HealthCheck reports whether a backing service is reachable
type HealthCheck func(ctx context.Context) error

func NewRouter(
	catalogController *controller.CatalogController,
	cartController *controller.CartController,
	checkoutController *controller.CheckoutController,
	contentController *controller.ContentController,
	webhookController *controller.WebhookController,
	cartSession *middleware.CartSessionMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		catalogController:  catalogController,
		cartController:     cartController,
		checkoutController: checkoutController,
		contentController:  contentController,
		webhookController:  webhookController,
		cartSession:        cartSession,
		config:             cfg,
		healthChecks:       make(map[string]HealthCheck),
	}
}

// AddHealthCheck includes check in GET /health
func (r *Router) AddHealthCheck(name string, check HealthCheck) {
	r.healthChecks[name] = check
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	useJSONFieldNames()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORS(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", r.catalogController.ListProducts)
			products.GET("/:slug", r.catalogController.GetProduct)
		}
		v1.GET("/categories", r.catalogController.ListCategories)

		cart := v1.Group("/cart", r.cartSession.Attach())
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.GET("/badge", r.cartController.GetBadge)
			cart.GET("/ws", r.cartController.HandleWebSocket)
			cart.POST("/items", r.cartController.AddToCart)
			cart.PUT("/items/:id", r.cartController.UpdateQuantity)
			cart.DELETE("/items/:id", r.cartController.RemoveItem)
		}

		checkout := v1.Group("/checkout", r.cartSession.Attach())
		{
			checkout.POST("", r.checkoutController.StartCheckout)
			checkout.GET("/complete", r.checkoutController.CompletePayment)
		}

		v1.GET("/faq", r.contentController.ListFAQs)
		v1.GET("/legal/:slug", r.contentController.GetLegalPage)
		articles := v1.Group("/articles")
		{
			articles.GET("", r.contentController.ListArticles)
			articles.GET("/:slug", r.contentController.GetArticle)
		}
		v1.POST("/contact", r.contentController.SubmitContact)

		webhooks := v1.Group("/webhooks", middleware.WebhookAuth(r.config.Webhook.Secret))
		{
			webhooks.POST("/strapi", r.webhookController.HandleStrapi)
		}
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(r.healthChecks))
	status := http.StatusOK
	for name, check := range r.healthChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	if status != http.StatusOK {
		c.JSON(status, gin.H{
			"status": "unhealthy",
			"checks": checks,
		})
		return
	}
	c.JSON(status, gin.H{
		"status":  "healthy",
		"message": "Storefront API is running",
		"checks":  checks,
	})
}

// useJSONFieldNames makes validation errors name fields by their JSON key
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
}
