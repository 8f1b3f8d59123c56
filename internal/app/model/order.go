package model

import "github.com/shopspring/decimal"

// OrderLine is one row of an order confirmation
type OrderLine struct {
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderConfirmation is what the confirmation email renders
type OrderConfirmation struct {
	OrderID      string
	CustomerName string
	Email        string
	Lines        []OrderLine
	Total        string
	AddressLines []string
}
