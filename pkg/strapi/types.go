package strapi

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity is one Strapi v4 record
type Entity[T any] struct {
	ID         int `json:"id"`
	Attributes T   `json:"attributes"`
}

// Pagination is the meta.pagination block of list responses
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

type Meta struct {
	Pagination Pagination `json:"pagination"`
}

// ListResponse is the envelope of collection endpoints
type ListResponse[T any] struct {
	Data []Entity[T] `json:"data"`
	Meta Meta        `json:"meta"`
}

// SingleResponse is the envelope of create and single-type endpoints
type SingleResponse[T any] struct {
	Data *Entity[T] `json:"data"`
}

// Relation is a populated to-one relation or single media field
type Relation[T any] struct {
	Data *Entity[T] `json:"data"`
}

// RelationList is a populated to-many relation or multiple media field
type RelationList[T any] struct {
	Data []Entity[T] `json:"data"`
}

type Image struct {
	URL             string `json:"url"`
	AlternativeText string `json:"alternativeText"`
}

type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Variant is the repeatable product.variants component
type Variant struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	SKU   string          `json:"sku"`
	Stock *int            `json:"stock"`
	Price json.RawMessage `json:"price,omitempty"`
}

type Product struct {
	Title       string              `json:"title"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	Price       json.RawMessage     `json:"price"`
	Stock       *int                `json:"stock"`
	Category    Relation[Category]  `json:"category"`
	Images      RelationList[Image] `json:"images"`
	Variants    []Variant           `json:"variants"`
}

// FindVariant returns the variant with the given id
func (p *Product) FindVariant(id int) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Order    int    `json:"order"`
}

type LegalPage struct {
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Article struct {
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Excerpt     string          `json:"excerpt"`
	Body        string          `json:"body"`
	PublishedAt *time.Time      `json:"publishedAt"`
	Cover       Relation[Image] `json:"cover"`
}

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Order status values
const (
	OrderStatusPending = "pending"
)

// Order is the order collection type. Items holds the line items as a
// JSON-encoded string.
type Order struct {
	CustomerName    string `json:"customerName"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	AddressLine1    string `json:"addressLine1"`
	AddressLine2    string `json:"addressLine2,omitempty"`
	City            string `json:"city"`
	PostalCode      string `json:"postalCode"`
	Country         string `json:"country"`
	Items           string `json:"items"`
	Total           string `json:"total"`
	Status          string `json:"status"`
	StripeSessionID string `json:"stripeSessionId,omitempty"`
}

// ProductQuery filters ListProducts
type ProductQuery struct {
	Category string
	Page     int
	PageSize int
}

// ErrorResponse represents an error body returned by Strapi
type ErrorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ErrorResponse) String() string {
	return fmt.Sprintf("strapi error: status=%d, name=%s, message=%s", e.Error.Status, e.Error.Name, e.Error.Message)
}
