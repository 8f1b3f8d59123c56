package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/ikkim/handmade-storefront/internal/app/model"
	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/ikkim/handmade-storefront/pkg/mailer"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
	"github.com/shopspring/decimal"
)

var ErrNoRecipient = errors.New("order has no email address")

const defaultNotifyTimeout = 30 * time.Second

// OrderCreatedEvent is an order as delivered by the CMS lifecycle webhook
type OrderCreatedEvent struct {
	OrderID int
	Order   strapi.Order
}

// ReceiptArchiver keeps a copy of sent confirmations
type ReceiptArchiver interface {
	Store(ctx context.Context, orderID string, html []byte) (string, error)
}

type NotificationService interface {
	// SendOrderConfirmation renders and sends the confirmation email
	SendOrderConfirmation(ctx context.Context, event OrderCreatedEvent) error
	// DispatchOrderConfirmation sends in the background. Failures are logged.
	DispatchOrderConfirmation(event OrderCreatedEvent)
	// Wait blocks until every dispatched send has finished
	Wait()
}

type notificationService struct {
	mailer     mailer.Mailer
	archive    ReceiptArchiver
	shopCopyTo string
	timeout    time.Duration
	wg         sync.WaitGroup
}

// NewNotificationService creates the order notification service. archive
// and shopCopyTo are optional.
func NewNotificationService(m mailer.Mailer, archive ReceiptArchiver, shopCopyTo string, timeout time.Duration) NotificationService {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &notificationService{
		mailer:     m,
		archive:    archive,
		shopCopyTo: shopCopyTo,
		timeout:    timeout,
	}
}

func (s *notificationService) DispatchOrderConfirmation(event OrderCreatedEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.SendOrderConfirmation(ctx, event); err != nil {
			logger.Error("Order confirmation not sent", err, map[string]interface{}{
				"order_id": event.OrderID,
			})
		}
	}()
}

func (s *notificationService) Wait() {
	s.wg.Wait()
}

func (s *notificationService) SendOrderConfirmation(ctx context.Context, event OrderCreatedEvent) error {
	if strings.TrimSpace(event.Order.Email) == "" {
		return ErrNoRecipient
	}

	confirmation := buildConfirmation(event)

	html, text, err := renderConfirmation(confirmation)
	if err != nil {
		return fmt.Errorf("failed to render confirmation: %w", err)
	}

	err = s.mailer.Send(ctx, mailer.Message{
		To:      event.Order.Email,
		Subject: fmt.Sprintf("Thank you for your order #%s", confirmation.OrderID),
		HTML:    html,
		Text:    text,
		Tag:     "order-confirmation",
	})
	if err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}

	logger.Info("Order confirmation sent", map[string]interface{}{
		"order_id": confirmation.OrderID,
		"lines":    len(confirmation.Lines),
	})

	if s.shopCopyTo != "" {
		err := s.mailer.Send(ctx, mailer.Message{
			To:      s.shopCopyTo,
			Subject: fmt.Sprintf("New order #%s from %s", confirmation.OrderID, confirmation.CustomerName),
			HTML:    html,
			Text:    text,
			Tag:     "order-shop-copy",
		})
		if err != nil {
			logger.Warn("Shop copy of order confirmation not sent", map[string]interface{}{
				"order_id": confirmation.OrderID,
				"error":    err.Error(),
			})
		}
	}

	if s.archive != nil {
		key, err := s.archive.Store(ctx, confirmation.OrderID, []byte(html))
		if err != nil {
			logger.Warn("Receipt not archived", map[string]interface{}{
				"order_id": confirmation.OrderID,
				"error":    err.Error(),
			})
		} else {
			logger.Info("Receipt archived", map[string]interface{}{
				"order_id": confirmation.OrderID,
				"key":      key,
			})
		}
	}

	return nil
}

// buildConfirmation maps the order onto the email view. An unreadable
// items string gives an empty line list.
func buildConfirmation(event OrderCreatedEvent) model.OrderConfirmation {
	order := event.Order
	orderID := strconv.Itoa(event.OrderID)

	var lines []OrderLine
	if strings.TrimSpace(order.Items) != "" {
		if err := json.Unmarshal([]byte(order.Items), &lines); err != nil {
			logger.Warn("Unreadable order items, sending without lines", map[string]interface{}{
				"order_id": orderID,
				"error":    err.Error(),
			})
			lines = nil
		}
	}

	view := model.OrderConfirmation{
		OrderID:      orderID,
		CustomerName: titleOrFallback(order.CustomerName, "there"),
		Email:        order.Email,
		Lines:        make([]model.OrderLine, 0, len(lines)),
		Total:        decimalOrZero(order.Total).StringFixed(2),
	}

	for _, line := range lines {
		unit := line.UnitPrice.Decimal()
		view.Lines = append(view.Lines, model.OrderLine{
			Title:     titleOrDefault(line.Title),
			Quantity:  line.Quantity,
			UnitPrice: unit,
			Subtotal:  unit.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	for _, part := range []string{
		order.AddressLine1,
		order.AddressLine2,
		strings.TrimSpace(order.PostalCode + " " + order.City),
		order.Country,
	} {
		if strings.TrimSpace(part) != "" {
			view.AddressLines = append(view.AddressLines, part)
		}
	}
	return view
}

func titleOrFallback(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func renderConfirmation(view model.OrderConfirmation) (string, string, error) {
	var html, text bytes.Buffer
	if err := confirmationHTML.Execute(&html, view); err != nil {
		return "", "", err
	}
	if err := confirmationText.Execute(&text, view); err != nil {
		return "", "", err
	}
	return html.String(), text.String(), nil
}

var templateFuncs = map[string]interface{}{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

var confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation.html").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #2b2b2b;">
  <h1>Thank you, {{.CustomerName}}!</h1>
  <p>We have received your order <strong>#{{.OrderID}}</strong> and are getting it ready.</p>
  {{if .Lines}}
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Subtotal</th></tr>
    {{range .Lines}}
    <tr><td>{{.Title}}</td><td align="center">{{.Quantity}}</td><td align="right">{{money .UnitPrice}}</td><td align="right">{{money .Subtotal}}</td></tr>
    {{end}}
  </table>
  {{end}}
  <p><strong>Total: {{.Total}}</strong></p>
  {{if .AddressLines}}
  <p>Shipping to:<br>{{range .AddressLines}}{{.}}<br>{{end}}</p>
  {{end}}
  <p>Every piece is made by hand, so thank you for your patience.</p>
</body>
</html>
`))

var confirmationText = texttemplate.Must(texttemplate.New("confirmation.txt").Funcs(templateFuncs).Parse(`Thank you, {{.CustomerName}}!

We have received your order #{{.OrderID}} and are getting it ready.
{{range .Lines}}
- {{.Title}} x{{.Quantity}} @ {{money .UnitPrice}} = {{money .Subtotal}}{{end}}

Total: {{.Total}}
{{if .AddressLines}}
Shipping to:
{{range .AddressLines}}{{.}}
{{end}}{{end}}
Every piece is made by hand, so thank you for your patience.
`))
