package model

import "github.com/shopspring/decimal"

// Substituted when the catalog returns incomplete data
const (
	PlaceholderImage = "/images/placeholder.png"
	UntitledProduct  = "Untitled"
)

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Variant struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	SKU   string          `json:"sku,omitempty"`
	Price decimal.Decimal `json:"price"`
	// Stock is nil when unknown; unknown stock is never clamped
	Stock   *int `json:"stock"`
	InStock bool `json:"in_stock"`
}

type Product struct {
	ID          int             `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Images      []string        `json:"images"`
	Category    *Category       `json:"category,omitempty"`
	Stock       *int            `json:"stock"`
	InStock     bool            `json:"in_stock"`
	Variants    []Variant       `json:"variants"`
}

type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	PageCount int `json:"page_count"`
	Total     int `json:"total"`
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
