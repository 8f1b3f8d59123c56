package service

import (
	"context"
	"errors"

	"github.com/ikkim/handmade-storefront/internal/cart"
	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOutOfStock       = errors.New("no more stock available for this item")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
)

// CartNotifier is told about every cart change; satisfied by the websocket hub
type CartNotifier interface {
	PublishCart(sessionID string, cart interface{})
}

// CartLine is a line item plus the values the UI shows next to it
type CartLine struct {
	cart.LineItem
	Subtotal     decimal.Decimal `json:"subtotal"`
	AtStockLimit bool            `json:"at_stock_limit"`
}

type CartView struct {
	Items []CartLine      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type AddToCartInput struct {
	ProductSlug string `json:"product_slug" binding:"required"`
	VariantID   int    `json:"variant_id"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
}

type AddToCartResult struct {
	Cart    CartView `json:"cart"`
	ItemID  string   `json:"item_id"`
	Added   int      `json:"added"`
	Clamped bool     `json:"clamped"`
}

type CartService interface {
	GetCart(ctx context.Context, sessionID string) CartView
	Badge(ctx context.Context, sessionID string) int
	AddToCart(ctx context.Context, sessionID string, input AddToCartInput) (*AddToCartResult, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) CartView
	ClearCart(ctx context.Context, sessionID string) CartView
	// PublishChange forwards a store change to the notifier
	PublishChange(sessionID string, state cart.State)
}

type cartService struct {
	registry *cart.Registry
	catalog  CatalogService
	notifier CartNotifier
}

func NewCartService(registry *cart.Registry, catalog CatalogService, notifier CartNotifier) CartService {
	return &cartService{
		registry: registry,
		catalog:  catalog,
		notifier: notifier,
	}
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) CartView {
	return NewCartView(s.registry.Get(ctx, sessionID).Snapshot())
}

func (s *cartService) Badge(ctx context.Context, sessionID string) int {
	return s.registry.Get(ctx, sessionID).TotalItemCount()
}

func (s *cartService) AddToCart(ctx context.Context, sessionID string, input AddToCartInput) (*AddToCartResult, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"cart_session": sessionID,
		"product":      input.ProductSlug,
		"variant_id":   input.VariantID,
		"quantity":     input.Quantity,
	})

	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.catalog.ResolveLineItem(ctx, input.ProductSlug, input.VariantID)
	if err != nil {
		logger.Warn("Cannot add to cart: line item not resolved", map[string]interface{}{
			"cart_session": sessionID,
			"product":      input.ProductSlug,
			"error":        err.Error(),
		})
		return nil, err
	}

	store := s.registry.Get(ctx, sessionID)

	quantity := input.Quantity
	clamped := false
	if item.StockCeiling != nil {
		existing := 0
		if current, ok := store.Item(item.ID); ok {
			existing = current.Quantity
		}
		room := *item.StockCeiling - existing
		if room <= 0 {
			logger.Warn("Cannot add to cart: stock ceiling reached", map[string]interface{}{
				"cart_session": sessionID,
				"item_id":      item.ID,
				"ceiling":      *item.StockCeiling,
				"in_cart":      existing,
			})
			return nil, ErrOutOfStock
		}
		if quantity > room {
			quantity = room
			clamped = true
		}
	}

	store.AddItem(item, quantity)

	logger.Info("Item added to cart", map[string]interface{}{
		"cart_session": sessionID,
		"item_id":      item.ID,
		"added":        quantity,
		"clamped":      clamped,
	})

	return &AddToCartResult{
		Cart:    NewCartView(store.Snapshot()),
		ItemID:  item.ID,
		Added:   quantity,
		Clamped: clamped,
	}, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*CartView, error) {
	store := s.registry.Get(ctx, sessionID)

	current, ok := store.Item(itemID)
	if !ok {
		logger.Warn("Cart item not found for update", map[string]interface{}{
			"cart_session": sessionID,
			"item_id":      itemID,
		})
		return nil, ErrCartItemNotFound
	}

	if quantity > current.Quantity && current.StockCeiling != nil && quantity > *current.StockCeiling {
		logger.Debug("Clamping quantity to stock ceiling", map[string]interface{}{
			"item_id":   itemID,
			"requested": quantity,
			"ceiling":   *current.StockCeiling,
		})
		quantity = *current.StockCeiling
	}

	store.UpdateQuantity(itemID, quantity)

	logger.Info("Cart item quantity updated", map[string]interface{}{
		"cart_session": sessionID,
		"item_id":      itemID,
		"quantity":     quantity,
	})

	view := NewCartView(store.Snapshot())
	return &view, nil
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, itemID string) CartView {
	store := s.registry.Get(ctx, sessionID)
	store.RemoveItem(itemID)

	logger.Info("Cart item removed", map[string]interface{}{
		"cart_session": sessionID,
		"item_id":      itemID,
	})
	return NewCartView(store.Snapshot())
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) CartView {
	store := s.registry.Get(ctx, sessionID)
	store.Clear()

	logger.Info("Cart cleared", map[string]interface{}{
		"cart_session": sessionID,
	})
	return NewCartView(store.Snapshot())
}

func (s *cartService) PublishChange(sessionID string, state cart.State) {
	if s.notifier == nil {
		return
	}
	s.notifier.PublishCart(sessionID, NewCartView(state))
}

// NewCartView derives the display view of a cart state
func NewCartView(state cart.State) CartView {
	lines := make([]CartLine, 0, len(state.Items))
	for _, item := range state.Items {
		lines = append(lines, CartLine{
			LineItem:     item,
			Subtotal:     item.Subtotal(),
			AtStockLimit: item.StockCeiling != nil && item.Quantity >= *item.StockCeiling,
		})
	}
	return CartView{
		Items: lines,
		Count: state.TotalItemCount(),
		Total: state.TotalPrice(),
	}
}
