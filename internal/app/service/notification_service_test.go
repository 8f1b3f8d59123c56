package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ikkim/handmade-storefront/pkg/mailer"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *fakeArchive) Store(ctx context.Context, orderID string, html []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	key := "receipts/order-" + orderID + ".html"
	a.keys = append(a.keys, key)
	return key, nil
}

func testOrderEvent() OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID: 42,
		Order: strapi.Order{
			CustomerName: "Ada Potter",
			Email:        "ada@example.com",
			AddressLine1: "1 Kiln Lane",
			City:         "Bristol",
			PostalCode:   "BS1 1AA",
			Country:      "GB",
			Items:        `[{"id":"mug-11","title":"Mug - Sage","quantity":2,"unitPrice":"28.50"},{"id":"print","title":"Linocut <b>print</b>","quantity":1,"unitPrice":45}]`,
			Total:        "102",
			Status:       strapi.OrderStatusPending,
		},
	}
}

func TestNotificationService_SendOrderConfirmation(t *testing.T) {
	m := &fakeMailer{}
	archive := &fakeArchive{}
	svc := NewNotificationService(m, archive, "shop@example.com", 0)

	require.NoError(t, svc.SendOrderConfirmation(context.Background(), testOrderEvent()))

	sent := m.messages()
	require.Len(t, sent, 2)

	customer := sent[0]
	assert.Equal(t, "ada@example.com", customer.To)
	assert.Contains(t, customer.Subject, "#42")
	assert.Contains(t, customer.HTML, "Mug - Sage")
	assert.Contains(t, customer.HTML, "57.00")
	assert.Contains(t, customer.HTML, "Linocut &lt;b&gt;print&lt;/b&gt;")
	assert.Contains(t, customer.HTML, "Total: 102.00")
	assert.Contains(t, customer.HTML, "BS1 1AA Bristol")
	assert.Contains(t, customer.Text, "- Mug - Sage x2 @ 28.50 = 57.00")

	assert.Equal(t, "shop@example.com", sent[1].To)
	assert.Equal(t, []string{"receipts/order-42.html"}, archive.keys)
}

func TestNotificationService_MalformedItemsStillSends(t *testing.T) {
	m := &fakeMailer{}
	svc := NewNotificationService(m, nil, "", 0)

	event := testOrderEvent()
	event.Order.Items = `not json`

	require.NoError(t, svc.SendOrderConfirmation(context.Background(), event))

	sent := m.messages()
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0].HTML, "<table")
	assert.Contains(t, sent[0].HTML, "Total: 102.00")
}

func TestNotificationService_NoRecipient(t *testing.T) {
	m := &fakeMailer{}
	svc := NewNotificationService(m, nil, "", 0)

	event := testOrderEvent()
	event.Order.Email = ""

	assert.ErrorIs(t, svc.SendOrderConfirmation(context.Background(), event), ErrNoRecipient)
	assert.Empty(t, m.messages())
}

func TestNotificationService_ArchiveFailureIsIgnored(t *testing.T) {
	m := &fakeMailer{}
	svc := NewNotificationService(m, &fakeArchive{err: errors.New("s3 down")}, "", 0)

	assert.NoError(t, svc.SendOrderConfirmation(context.Background(), testOrderEvent()))
	assert.Len(t, m.messages(), 1)
}

func TestNotificationService_DispatchSwallowsFailures(t *testing.T) {
	m := &fakeMailer{err: mailer.ErrSendFailed}
	svc := NewNotificationService(m, nil, "", 0)

	svc.DispatchOrderConfirmation(testOrderEvent())
	svc.Wait()

	assert.Empty(t, m.messages())
}

func TestNotificationService_Dispatch(t *testing.T) {
	m := &fakeMailer{}
	svc := NewNotificationService(m, nil, "", 0)

	svc.DispatchOrderConfirmation(testOrderEvent())
	svc.Wait()

	assert.Len(t, m.messages(), 1)
}
