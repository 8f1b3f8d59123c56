package stripe

import "fmt"

// LineItem is one row of a hosted checkout session. UnitAmount is in the
// currency's minor unit.
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

// CheckoutSessionRequest describes a hosted checkout session
type CheckoutSessionRequest struct {
	LineItems         []LineItem
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string

	// Optional overrides of the configured URLs
	SuccessURL string
	CancelURL  string

	// IdempotencyKey is sent as the Idempotency-Key header when set
	IdempotencyKey string
}

// CheckoutSession is the subset of Stripe's checkout.session we read
type CheckoutSession struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	Status            string `json:"status"`
	PaymentStatus     string `json:"payment_status"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
	ClientReferenceID string `json:"client_reference_id"`
}

// ErrorResponse represents an error response from the Stripe API
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Param   string `json:"param"`
	} `json:"error"`
}

func (e *ErrorResponse) String() string {
	return fmt.Sprintf("stripe error: type=%s, code=%s, message=%s", e.Error.Type, e.Error.Code, e.Error.Message)
}
