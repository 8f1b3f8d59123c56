package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/internal/app/service"
	apperrors "github.com/ikkim/handmade-storefront/internal/errors"
	"github.com/ikkim/handmade-storefront/internal/middleware"
)

const checkoutRetryMessage = "We couldn't start checkout. Your cart has been kept, please try again"

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

// StartCheckout creates the payment session and pending order
// POST /api/v1/checkout
func (ctrl *CheckoutController) StartCheckout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	var req service.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout form", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validationFields(err))
		return
	}

	result, err := ctrl.checkoutService.StartCheckout(c.Request.Context(), sessionID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.CartEmpty, "Your cart is empty")
		case errors.Is(err, service.ErrPaymentSessionFailed):
			log.Error("Checkout payment session failed", err)
			apperrors.BadGateway(c, apperrors.CheckoutPaymentFailed, checkoutRetryMessage)
		case errors.Is(err, service.ErrOrderSubmitFailed):
			log.Error("Checkout order submission failed", err)
			apperrors.BadGateway(c, apperrors.CheckoutOrderFailed, checkoutRetryMessage)
		default:
			respondUpstreamError(c, log, err, "checkout")
		}
		return
	}

	log.Info("Checkout session created", map[string]interface{}{
		"order_id":        result.OrderID,
		"payment_session": result.SessionID,
	})
	c.JSON(http.StatusCreated, result)
}

// CompletePayment is where the payment processor sends the shopper back
// GET /api/v1/checkout/complete?session_id=
func (ctrl *CheckoutController) CompletePayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	paymentSession := c.Query("session_id")
	if err := ctrl.checkoutService.CompletePayment(c.Request.Context(), sessionID, paymentSession); err != nil {
		if errors.Is(err, service.ErrMissingPaymentSession) {
			apperrors.BadRequest(c, apperrors.CheckoutMissingSession, "We couldn't confirm your payment. Your cart has been kept")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Thank you! Your order has been placed",
		"session_id": paymentSession,
	})
}
