package controller

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/internal/app/service"
	"github.com/ikkim/handmade-storefront/internal/cart"
	"github.com/ikkim/handmade-storefront/internal/middleware"
	"github.com/ikkim/handmade-storefront/pkg/payment/stripe"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCheckoutControllerTest(t *testing.T) (*gin.Engine, *cart.Registry, *fakeStrapi, *fakeGateway) {
	registry := cart.NewRegistry(cart.NopPersister{}, 0)
	t.Cleanup(registry.Flush)

	cms := newFakeStrapi()
	gateway := &fakeGateway{}
	ctrl := NewCheckoutController(service.NewCheckoutService(registry, gateway, cms))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	group := router.Group("/checkout", withSession("s1"))
	group.POST("", ctrl.StartCheckout)
	group.GET("/complete", ctrl.CompletePayment)

	return router, registry, cms, gateway
}

func checkoutForm() map[string]interface{} {
	return map[string]interface{}{
		"customer_name": "Ada Potter",
		"email":         "ada@example.com",
		"address_line1": "1 Kiln Lane",
		"city":          "Bristol",
		"postal_code":   "BS1 1AA",
		"country":       "GB",
	}
}

func addPrint(registry *cart.Registry) {
	registry.Get(context.Background(), "s1").AddItem(cart.LineItem{
		ID:        "linocut-print",
		Title:     "Linocut print",
		UnitPrice: cart.PriceFromString("45.00"),
	}, 2)
}

func TestCheckoutController_StartCheckout(t *testing.T) {
	router, registry, cms, _ := setupCheckoutControllerTest(t)
	addPrint(registry)

	w := doJSON(router, http.MethodPost, "/checkout", checkoutForm())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"redirect_url":"https://checkout.stripe.test/cs_test_1","order_id":101,"session_id":"cs_test_1"}`, w.Body.String())

	require.Len(t, cms.orders, 1)
	assert.Equal(t, "90.00", cms.orders[0].Total)
	assert.Equal(t, 2, registry.Get(context.Background(), "s1").TotalItemCount())
}

func TestCheckoutController_Validation(t *testing.T) {
	router, registry, _, _ := setupCheckoutControllerTest(t)
	addPrint(registry)

	form := checkoutForm()
	form["email"] = "not-an-email"
	delete(form, "city")

	w := doJSON(router, http.MethodPost, "/checkout", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_INVALID_INPUT")
}

func TestCheckoutController_EmptyCart(t *testing.T) {
	router, _, _, _ := setupCheckoutControllerTest(t)

	w := doJSON(router, http.MethodPost, "/checkout", checkoutForm())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CART_EMPTY")
}

func TestCheckoutController_UpstreamFailureKeepsCart(t *testing.T) {
	t.Run("payment", func(t *testing.T) {
		router, registry, _, gateway := setupCheckoutControllerTest(t)
		addPrint(registry)
		gateway.err = stripe.ErrNetworkError

		w := doJSON(router, http.MethodPost, "/checkout", checkoutForm())
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "CHECKOUT_PAYMENT_FAILED")
		assert.Equal(t, 2, registry.Get(context.Background(), "s1").TotalItemCount())
	})

	t.Run("order", func(t *testing.T) {
		router, registry, cms, _ := setupCheckoutControllerTest(t)
		addPrint(registry)
		cms.err = strapi.ErrUnavailable

		w := doJSON(router, http.MethodPost, "/checkout", checkoutForm())
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "CHECKOUT_ORDER_FAILED")
		assert.Equal(t, 2, registry.Get(context.Background(), "s1").TotalItemCount())
	})
}

func TestCheckoutController_CompletePayment(t *testing.T) {
	router, registry, _, _ := setupCheckoutControllerTest(t)
	addPrint(registry)

	w := doJSON(router, http.MethodGet, "/checkout/complete", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 2, registry.Get(context.Background(), "s1").TotalItemCount())

	w = doJSON(router, http.MethodGet, "/checkout/complete?session_id=cs_test_1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, registry.Get(context.Background(), "s1").TotalItemCount())
}
