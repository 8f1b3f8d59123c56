package cart

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedState() State {
	ceiling := 3
	return State{
		Items: []LineItem{
			{ID: "p1-v1", Title: "Blue mug", UnitPrice: PriceFromFloat(10), Quantity: 2, ImageURL: "/m.jpg", ProductRef: "p1", VariantRef: "v1", StockCeiling: &ceiling},
			{ID: "p2", Title: "Tote", UnitPrice: PriceFromString("24.90"), Quantity: 1},
			{ID: "p3-v9", Title: "Card", UnitPrice: PriceFromString("n/a"), Quantity: 4, ProductRef: "p3", VariantRef: "v9"},
			{ID: "p4", Title: "Scarf", UnitPrice: PriceFromString("7.5"), Quantity: 3},
		},
		LastActivity: ActiveAt(time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)),
	}
}

func TestState_RoundTrip(t *testing.T) {
	original := mixedState()

	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, original, decoded)
	assert.True(t, original.TotalPrice().Equal(decoded.TotalPrice()))
	assert.Equal(t, "67.4", decoded.TotalPrice().String())

	again, err := Encode(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestState_WireFormat(t *testing.T) {
	data, err := Encode(State{
		Items: []LineItem{
			{ID: "a", Title: "A", UnitPrice: PriceFromString("12.00"), Quantity: 1},
			{ID: "b", Title: "B", UnitPrice: PriceFromFloat(3.5), Quantity: 2},
		},
		LastActivity: ActiveAt(time.UnixMilli(1767225600000)),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"items": [
			{"id": "a", "title": "A", "unitPrice": "12.00", "quantity": 1},
			{"id": "b", "title": "B", "unitPrice": 3.5, "quantity": 2}
		],
		"lastActivityTimestamp": 1767225600000
	}`, string(data))
}

func TestState_EmptyEncodesUnsetAsZero(t *testing.T) {
	data, err := Encode(State{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"lastActivityTimestamp":0}`, string(data))

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.False(t, decoded.LastActivity.IsSet())
	assert.Empty(t, decoded.Items)
}

func TestDecode_DropsInvalidRows(t *testing.T) {
	decoded, err := Decode([]byte(`{
		"items": [
			{"id": "a", "unitPrice": 1, "quantity": 2},
			{"id": "a", "unitPrice": 1, "quantity": 5},
			{"id": "b", "unitPrice": 1, "quantity": 0},
			{"id": "", "unitPrice": 1, "quantity": 1},
			{"id": "c", "unitPrice": null, "quantity": 1}
		],
		"lastActivityTimestamp": null
	}`))
	require.NoError(t, err)

	require.Len(t, decoded.Items, 2)
	assert.Equal(t, "a", decoded.Items[0].ID)
	assert.Equal(t, 2, decoded.Items[0].Quantity)
	assert.Equal(t, "c", decoded.Items[1].ID)
	assert.False(t, decoded.LastActivity.IsSet())
}

func TestDecode_Corrupted(t *testing.T) {
	_, err := Decode([]byte(`{"items": [`))
	assert.Error(t, err)
}

func TestPrice_Decimal(t *testing.T) {
	tests := []struct {
		name  string
		price Price
		want  string
	}{
		{name: "number", price: PriceFromFloat(19.99), want: "19.99"},
		{name: "numeric string", price: PriceFromString("8.25"), want: "8.25"},
		{name: "padded string", price: PriceFromString(" 4 "), want: "4"},
		{name: "empty string", price: PriceFromString(""), want: "0"},
		{name: "text", price: PriceFromString("free"), want: "0"},
		{name: "zero value", price: Price{}, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.want).Equal(tt.price.Decimal()), "got %s", tt.price.Decimal())
		})
	}
}

func TestPrice_UnmarshalRejectsNonScalar(t *testing.T) {
	var p Price
	assert.Error(t, json.Unmarshal([]byte(`true`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"amount": 1}`), &p))
}
