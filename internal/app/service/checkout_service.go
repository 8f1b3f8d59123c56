package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ikkim/handmade-storefront/internal/cart"
	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/ikkim/handmade-storefront/pkg/payment/stripe"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrPaymentSessionFailed  = errors.New("failed to create payment session")
	ErrOrderSubmitFailed     = errors.New("failed to submit order")
	ErrMissingPaymentSession = errors.New("payment session reference is missing")
)

// PaymentGateway creates hosted payment sessions
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req stripe.CheckoutSessionRequest) (*stripe.CheckoutSession, error)
}

// OrderSink records submitted orders
type OrderSink interface {
	CreateOrder(ctx context.Context, order strapi.Order) (*strapi.Entity[strapi.Order], error)
}

// CheckoutInput is the contact and shipping form
type CheckoutInput struct {
	CustomerName string `json:"customer_name" binding:"required,max=120"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"max=40"`
	AddressLine1 string `json:"address_line1" binding:"required,max=200"`
	AddressLine2 string `json:"address_line2" binding:"max=200"`
	City         string `json:"city" binding:"required,max=100"`
	PostalCode   string `json:"postal_code" binding:"required,max=20"`
	Country      string `json:"country" binding:"required,max=60"`
}

type CheckoutResult struct {
	RedirectURL string `json:"redirect_url"`
	OrderID     int    `json:"order_id"`
	SessionID   string `json:"session_id"`
}

// OrderLine is one entry of the order's items string
type OrderLine struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Quantity  int        `json:"quantity"`
	UnitPrice cart.Price `json:"unitPrice"`
	ImageURL  string     `json:"imageUrl,omitempty"`
}

type CheckoutService interface {
	// StartCheckout opens a payment session and records a pending order.
	// The cart is left as it is whatever the outcome.
	StartCheckout(ctx context.Context, sessionID string, input CheckoutInput) (*CheckoutResult, error)
	// CompletePayment clears the cart when the processor sent the shopper
	// back with a session reference.
	CompletePayment(ctx context.Context, sessionID, paymentSessionRef string) error
}

type checkoutService struct {
	registry *cart.Registry
	payments PaymentGateway
	orders   OrderSink
}

func NewCheckoutService(registry *cart.Registry, payments PaymentGateway, orders OrderSink) CheckoutService {
	return &checkoutService{
		registry: registry,
		payments: payments,
		orders:   orders,
	}
}

func (s *checkoutService) StartCheckout(ctx context.Context, sessionID string, input CheckoutInput) (*CheckoutResult, error) {
	snapshot := s.registry.Get(ctx, sessionID).Snapshot()
	if len(snapshot.Items) == 0 {
		logger.Warn("Checkout attempted with empty cart", map[string]interface{}{
			"cart_session": sessionID,
		})
		return nil, ErrEmptyCart
	}
	total := snapshot.TotalPrice()

	logger.Info("Starting checkout", map[string]interface{}{
		"cart_session": sessionID,
		"items":        len(snapshot.Items),
		"total":        total.StringFixed(2),
	})

	session, err := s.payments.CreateCheckoutSession(ctx, stripe.CheckoutSessionRequest{
		LineItems:         toPaymentLines(snapshot.Items),
		CustomerEmail:     input.Email,
		ClientReferenceID: sessionID,
		Metadata:          map[string]string{"cart_session": sessionID},
		IdempotencyKey:    "checkout-" + uuid.NewString(),
	})
	if err != nil {
		logger.Error("Failed to create payment session", err, map[string]interface{}{
			"cart_session": sessionID,
		})
		return nil, fmt.Errorf("%w: %w", ErrPaymentSessionFailed, err)
	}

	items, err := encodeOrderLines(snapshot.Items)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderSubmitFailed, err)
	}

	order, err := s.orders.CreateOrder(ctx, strapi.Order{
		CustomerName:    input.CustomerName,
		Email:           input.Email,
		Phone:           input.Phone,
		AddressLine1:    input.AddressLine1,
		AddressLine2:    input.AddressLine2,
		City:            input.City,
		PostalCode:      input.PostalCode,
		Country:         input.Country,
		Items:           items,
		Total:           total.StringFixed(2),
		Status:          strapi.OrderStatusPending,
		StripeSessionID: session.ID,
	})
	if err != nil {
		logger.Error("Failed to submit order", err, map[string]interface{}{
			"cart_session":    sessionID,
			"payment_session": session.ID,
		})
		return nil, fmt.Errorf("%w: %w", ErrOrderSubmitFailed, err)
	}

	logger.Info("Checkout started", map[string]interface{}{
		"cart_session":    sessionID,
		"order_id":        order.ID,
		"payment_session": session.ID,
	})

	return &CheckoutResult{
		RedirectURL: session.URL,
		OrderID:     order.ID,
		SessionID:   session.ID,
	}, nil
}

func (s *checkoutService) CompletePayment(ctx context.Context, sessionID, paymentSessionRef string) error {
	if paymentSessionRef == "" {
		logger.Warn("Payment return without session reference", map[string]interface{}{
			"cart_session": sessionID,
		})
		return ErrMissingPaymentSession
	}

	s.registry.Get(ctx, sessionID).Clear()

	logger.Info("Payment completed, cart cleared", map[string]interface{}{
		"cart_session":    sessionID,
		"payment_session": paymentSessionRef,
	})
	return nil
}

// toPaymentLines converts cart rows to minor-unit amounts
func toPaymentLines(items []cart.LineItem) []stripe.LineItem {
	hundred := decimal.NewFromInt(100)
	lines := make([]stripe.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, stripe.LineItem{
			Name:       item.Title,
			ImageURL:   item.ImageURL,
			UnitAmount: item.UnitPrice.Decimal().Mul(hundred).Round(0).IntPart(),
			Quantity:   int64(item.Quantity),
		})
	}
	return lines
}

func encodeOrderLines(items []cart.LineItem) (string, error) {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			ID:        item.ID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			ImageURL:  item.ImageURL,
		})
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("failed to encode order items: %w", err)
	}
	return string(data), nil
}
