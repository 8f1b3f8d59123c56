package controller

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/internal/middleware"
	"github.com/ikkim/handmade-storefront/pkg/payment/stripe"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
)

// fakeStrapi serves the catalog, content and order collections from memory
type fakeStrapi struct {
	mu       sync.Mutex
	products []strapi.Entity[strapi.Product]
	faqs     []strapi.Entity[strapi.FAQ]
	articles []strapi.Entity[strapi.Article]
	contacts []strapi.ContactMessage
	orders   []strapi.Order
	err      error
}

func newFakeStrapi() *fakeStrapi {
	stock := 3
	return &fakeStrapi{
		products: []strapi.Entity[strapi.Product]{
			{ID: 8, Attributes: strapi.Product{
				Title: "Linocut print",
				Slug:  "linocut-print",
				Price: json.RawMessage(`"45.00"`),
				Stock: &stock,
			}},
			{ID: 9, Attributes: strapi.Product{
				Title: "Scarf",
				Slug:  "scarf",
				Price: json.RawMessage(`12.5`),
			}},
		},
		faqs: []strapi.Entity[strapi.FAQ]{
			{ID: 1, Attributes: strapi.FAQ{Question: "Do you ship abroad?", Answer: "Yes."}},
		},
		articles: []strapi.Entity[strapi.Article]{
			{ID: 5, Attributes: strapi.Article{Title: "Firing the kiln", Slug: "firing-the-kiln", Body: "Long read"}},
		},
	}
}

func (f *fakeStrapi) ListProducts(ctx context.Context, q strapi.ProductQuery) (*strapi.ListResponse[strapi.Product], error) {
	if f.err != nil {
		return nil, f.err
	}
	return &strapi.ListResponse[strapi.Product]{
		Data: f.products,
		Meta: strapi.Meta{Pagination: strapi.Pagination{Page: q.Page, PageSize: q.PageSize, PageCount: 1, Total: len(f.products)}},
	}, nil
}

func (f *fakeStrapi) GetProductBySlug(ctx context.Context, slug string) (*strapi.Entity[strapi.Product], error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].Attributes.Slug == slug {
			return &f.products[i], nil
		}
	}
	return nil, strapi.ErrNotFound
}

func (f *fakeStrapi) ListCategories(ctx context.Context) ([]strapi.Entity[strapi.Category], error) {
	if f.err != nil {
		return nil, f.err
	}
	return []strapi.Entity[strapi.Category]{{ID: 1, Attributes: strapi.Category{Name: "Prints", Slug: "prints"}}}, nil
}

func (f *fakeStrapi) ListFAQs(ctx context.Context) ([]strapi.Entity[strapi.FAQ], error) {
	return f.faqs, f.err
}

func (f *fakeStrapi) GetLegalPage(ctx context.Context, slug string) (*strapi.Entity[strapi.LegalPage], error) {
	if f.err != nil {
		return nil, f.err
	}
	if slug != "privacy" {
		return nil, strapi.ErrNotFound
	}
	return &strapi.Entity[strapi.LegalPage]{ID: 1, Attributes: strapi.LegalPage{Title: "Privacy", Slug: "privacy"}}, nil
}

func (f *fakeStrapi) ListArticles(ctx context.Context, page, pageSize int) (*strapi.ListResponse[strapi.Article], error) {
	if f.err != nil {
		return nil, f.err
	}
	return &strapi.ListResponse[strapi.Article]{
		Data: f.articles,
		Meta: strapi.Meta{Pagination: strapi.Pagination{Page: page, PageSize: pageSize, PageCount: 1, Total: len(f.articles)}},
	}, nil
}

func (f *fakeStrapi) GetArticleBySlug(ctx context.Context, slug string) (*strapi.Entity[strapi.Article], error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.articles {
		if f.articles[i].Attributes.Slug == slug {
			return &f.articles[i], nil
		}
	}
	return nil, strapi.ErrNotFound
}

func (f *fakeStrapi) CreateContactMessage(ctx context.Context, msg strapi.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.contacts = append(f.contacts, msg)
	return nil
}

func (f *fakeStrapi) CreateOrder(ctx context.Context, order strapi.Order) (*strapi.Entity[strapi.Order], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.orders = append(f.orders, order)
	return &strapi.Entity[strapi.Order]{ID: 100 + len(f.orders), Attributes: order}, nil
}

type fakeGateway struct {
	err error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req stripe.CheckoutSessionRequest) (*stripe.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

// withSession stands in for the cookie middleware
func withSession(sessionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CartSessionIDKey, sessionID)
		c.Next()
	}
}
