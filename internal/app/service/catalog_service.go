package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/handmade-storefront/internal/app/model"
	"github.com/ikkim/handmade-storefront/internal/cart"
	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

// CatalogSource is the part of the Strapi client the storefront reads from
type CatalogSource interface {
	ListProducts(ctx context.Context, q strapi.ProductQuery) (*strapi.ListResponse[strapi.Product], error)
	GetProductBySlug(ctx context.Context, slug string) (*strapi.Entity[strapi.Product], error)
	ListCategories(ctx context.Context) ([]strapi.Entity[strapi.Category], error)
}

type ProductListOptions struct {
	Category string
	Page     int
	PageSize int
}

type CatalogService interface {
	ListProducts(ctx context.Context, opts ProductListOptions) (*model.ProductPage, error)
	GetProduct(ctx context.Context, slug string) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	// ResolveLineItem builds the denormalized cart row for a product and
	// optional variant (variantID 0 means none).
	ResolveLineItem(ctx context.Context, productSlug string, variantID int) (cart.LineItem, error)
}

type catalogService struct {
	source        CatalogSource
	assetsBaseURL string
}

// NewCatalogService creates the catalog service. assetsBaseURL prefixes
// relative media URLs returned by Strapi.
func NewCatalogService(source CatalogSource, assetsBaseURL string) CatalogService {
	return &catalogService{
		source:        source,
		assetsBaseURL: strings.TrimRight(assetsBaseURL, "/"),
	}
}

func (s *catalogService) ListProducts(ctx context.Context, opts ProductListOptions) (*model.ProductPage, error) {
	page, pageSize := normalizePaging(opts.Page, opts.PageSize)

	logger.Debug("Listing products", map[string]interface{}{
		"category":  opts.Category,
		"page":      page,
		"page_size": pageSize,
	})

	resp, err := s.source.ListProducts(ctx, strapi.ProductQuery{
		Category: opts.Category,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"category": opts.Category,
		})
		return nil, err
	}

	products := make([]model.Product, 0, len(resp.Data))
	for i := range resp.Data {
		products = append(products, s.toProduct(&resp.Data[i]))
	}

	return &model.ProductPage{
		Products:   products,
		Pagination: toPagination(resp.Meta.Pagination),
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, slug string) (*model.Product, error) {
	entity, err := s.source.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, strapi.ErrNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"slug": slug,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}

	product := s.toProduct(entity)
	return &product, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	entities, err := s.source.ListCategories(ctx)
	if err != nil {
		logger.Error("Failed to list categories", err)
		return nil, err
	}

	categories := make([]model.Category, 0, len(entities))
	for _, e := range entities {
		categories = append(categories, model.Category{
			ID:   e.ID,
			Name: e.Attributes.Name,
			Slug: e.Attributes.Slug,
		})
	}
	return categories, nil
}

func (s *catalogService) ResolveLineItem(ctx context.Context, productSlug string, variantID int) (cart.LineItem, error) {
	entity, err := s.source.GetProductBySlug(ctx, productSlug)
	if err != nil {
		if errors.Is(err, strapi.ErrNotFound) {
			return cart.LineItem{}, ErrProductNotFound
		}
		return cart.LineItem{}, err
	}

	p := entity.Attributes
	productRef := productSlug
	item := cart.LineItem{
		Title:        titleOrDefault(p.Title),
		UnitPrice:    priceFromRaw(p.Price),
		ImageURL:     s.firstImage(p.Images),
		ProductRef:   productRef,
		StockCeiling: copyStock(p.Stock),
	}

	if variantID == 0 {
		if len(p.Variants) > 0 {
			logger.Warn("Variant required but not given", map[string]interface{}{
				"product": productSlug,
			})
			return cart.LineItem{}, fmt.Errorf("%w: product %q requires a variant", ErrVariantNotFound, productSlug)
		}
		item.ID = cart.LineItemID(productRef, "")
		return item, nil
	}

	variant, ok := p.FindVariant(variantID)
	if !ok {
		return cart.LineItem{}, fmt.Errorf("%w: %d on product %q", ErrVariantNotFound, variantID, productSlug)
	}

	variantRef := fmt.Sprintf("%d", variant.ID)
	item.ID = cart.LineItemID(productRef, variantRef)
	item.VariantRef = variantRef
	if variant.Name != "" {
		item.Title = fmt.Sprintf("%s - %s", item.Title, variant.Name)
	}
	if len(variant.Price) > 0 && string(variant.Price) != "null" {
		item.UnitPrice = priceFromRaw(variant.Price)
	}
	if variant.Stock != nil {
		item.StockCeiling = copyStock(variant.Stock)
	}
	return item, nil
}

func (s *catalogService) toProduct(e *strapi.Entity[strapi.Product]) model.Product {
	p := e.Attributes
	price := priceFromRaw(p.Price).Decimal()

	product := model.Product{
		ID:          e.ID,
		Slug:        p.Slug,
		Title:       titleOrDefault(p.Title),
		Description: p.Description,
		Price:       price,
		ImageURL:    s.firstImage(p.Images),
		Images:      s.imageURLs(p.Images),
		Stock:       copyStock(p.Stock),
		InStock:     inStock(p.Stock),
		Variants:    make([]model.Variant, 0, len(p.Variants)),
	}
	if c := p.Category.Data; c != nil {
		product.Category = &model.Category{ID: c.ID, Name: c.Attributes.Name, Slug: c.Attributes.Slug}
	}

	for _, v := range p.Variants {
		variantPrice := price
		if len(v.Price) > 0 && string(v.Price) != "null" {
			variantPrice = priceFromRaw(v.Price).Decimal()
		}
		stock := v.Stock
		if stock == nil {
			stock = p.Stock
		}
		product.Variants = append(product.Variants, model.Variant{
			ID:      v.ID,
			Name:    v.Name,
			SKU:     v.SKU,
			Price:   variantPrice,
			Stock:   copyStock(stock),
			InStock: inStock(stock),
		})
	}
	return product
}

func (s *catalogService) firstImage(images strapi.RelationList[strapi.Image]) string {
	urls := s.imageURLs(images)
	if len(urls) == 0 {
		return model.PlaceholderImage
	}
	return urls[0]
}

func (s *catalogService) imageURLs(images strapi.RelationList[strapi.Image]) []string {
	urls := make([]string, 0, len(images.Data))
	for _, img := range images.Data {
		if u := s.absoluteURL(img.Attributes.URL); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func (s *catalogService) absoluteURL(u string) string {
	return assetURL(s.assetsBaseURL, u)
}

// assetURL prefixes relative media paths with the CMS base URL
func assetURL(base, u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return base + "/" + strings.TrimLeft(u, "/")
}

// priceFromRaw keeps the catalog's own representation (number or string);
// anything unreadable becomes a zero price.
func priceFromRaw(raw json.RawMessage) cart.Price {
	var p cart.Price
	if len(raw) == 0 {
		return p
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		logger.Warn("Unreadable catalog price, using 0", map[string]interface{}{
			"raw": string(raw),
		})
		return cart.Price{}
	}
	return p
}

func titleOrDefault(title string) string {
	if strings.TrimSpace(title) == "" {
		return model.UntitledProduct
	}
	return title
}

func copyStock(stock *int) *int {
	if stock == nil {
		return nil
	}
	n := *stock
	if n < 0 {
		n = 0
	}
	return &n
}

// inStock treats unknown stock as available
func inStock(stock *int) bool {
	return stock == nil || *stock > 0
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func toPagination(p strapi.Pagination) model.Pagination {
	return model.Pagination{
		Page:      p.Page,
		PageSize:  p.PageSize,
		PageCount: p.PageCount,
		Total:     p.Total,
	}
}

// decimalOrZero parses s, giving zero for blank or malformed input
func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
