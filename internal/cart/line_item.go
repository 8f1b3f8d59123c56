package cart

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a unit price as it was supplied: either a JSON number or a
// numeric string. The raw form is kept so a persisted cart round-trips
// byte for byte; arithmetic goes through Decimal.
type Price struct {
	raw    string
	quoted bool
}

func NewPrice(d decimal.Decimal) Price {
	return Price{raw: d.String()}
}

func PriceFromFloat(f float64) Price {
	return NewPrice(decimal.NewFromFloat(f))
}

// PriceFromString keeps s verbatim, even when it is not numeric.
func PriceFromString(s string) Price {
	return Price{raw: s, quoted: true}
}

// Decimal coerces the price. Anything that does not parse is zero.
func (p Price) Decimal() decimal.Decimal {
	s := strings.TrimSpace(p.raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (p Price) String() string {
	return p.raw
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.quoted {
		return json.Marshal(p.raw)
	}
	if p.raw == "" {
		return []byte("0"), nil
	}
	return []byte(p.raw), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = Price{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceFromString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*p = Price{raw: n.String()}
	}
	return nil
}

// LineItem is one row of the cart. Title, price and image are copied
// from the catalog when the item is added and never re-synced.
type LineItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	UnitPrice    Price  `json:"unitPrice"`
	Quantity     int    `json:"quantity"`
	ImageURL     string `json:"imageUrl,omitempty"`
	ProductRef   string `json:"productRef,omitempty"`
	VariantRef   string `json:"variantRef,omitempty"`
	StockCeiling *int   `json:"stockCeiling,omitempty"`
}

// LineItemID builds the merge key for a product and an optional variant.
func LineItemID(productRef, variantRef string) string {
	if variantRef == "" {
		return productRef
	}
	return productRef + "-" + variantRef
}

// Subtotal is UnitPrice x Quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Decimal().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i LineItem) clone() LineItem {
	if i.StockCeiling != nil {
		ceiling := *i.StockCeiling
		i.StockCeiling = &ceiling
	}
	return i
}
