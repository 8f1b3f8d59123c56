package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/internal/app/service"
	apperrors "github.com/ikkim/handmade-storefront/internal/errors"
	"github.com/ikkim/handmade-storefront/internal/middleware"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
)

// Strapi lifecycle webhook values
const (
	eventEntryCreate = "entry.create"
	modelOrder       = "order"
)

// StrapiWebhookPayload is the body of a Strapi lifecycle webhook
type StrapiWebhookPayload struct {
	Event string          `json:"event" binding:"required"`
	Model string          `json:"model"`
	Entry json.RawMessage `json:"entry"`
}

// orderEntry is an order as it appears in webhook entries: flat, with id
type orderEntry struct {
	ID int `json:"id"`
	strapi.Order
}

type WebhookController struct {
	notificationService service.NotificationService
}

func NewWebhookController(notificationService service.NotificationService) *WebhookController {
	return &WebhookController{
		notificationService: notificationService,
	}
}

// HandleStrapi dispatches order confirmation emails for new orders. It
// answers before the email is sent.
// POST /api/v1/webhooks/strapi
func (ctrl *WebhookController) HandleStrapi(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var payload StrapiWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Warn("Invalid webhook payload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid webhook payload")
		return
	}

	if payload.Event != eventEntryCreate || payload.Model != modelOrder {
		log.Debug("Webhook ignored", map[string]interface{}{
			"event": payload.Event,
			"model": payload.Model,
		})
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	var entry orderEntry
	if err := json.Unmarshal(payload.Entry, &entry); err != nil {
		log.Warn("Invalid order entry in webhook", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid order entry")
		return
	}

	ctrl.notificationService.DispatchOrderConfirmation(service.OrderCreatedEvent{
		OrderID: entry.ID,
		Order:   entry.Order,
	})

	log.Info("Order confirmation dispatched", map[string]interface{}{
		"order_id": entry.ID,
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
