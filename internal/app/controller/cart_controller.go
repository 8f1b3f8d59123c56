package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/handmade-storefront/internal/app/service"
	apperrors "github.com/ikkim/handmade-storefront/internal/errors"
	"github.com/ikkim/handmade-storefront/internal/middleware"
	ws "github.com/ikkim/handmade-storefront/internal/websocket"
)

type CartController struct {
	cartService service.CartService
	hub         *ws.Hub
	upgrader    websocket.Upgrader
}

// NewCartController creates the cart controller. allowedOrigins limits
// which pages may open the live cart socket.
func NewCartController(cartService service.CartService, hub *ws.Hub, allowedOrigins []string) *CartController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &CartController{
		cartService: cartService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart returns the session's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	view := ctrl.cartService.GetCart(c.Request.Context(), sessionID)

	log.Debug("Cart fetched", map[string]interface{}{
		"count": view.Count,
	})
	c.JSON(http.StatusOK, view)
}

// GetBadge returns only the item count shown in the navbar
// GET /api/v1/cart/badge
func (ctrl *CartController) GetBadge(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": ctrl.cartService.Badge(c.Request.Context(), sessionID),
	})
}

// AddToCart adds a product (and variant) to the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	var req service.AddToCartInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please choose a product and a quantity of at least 1")
		return
	}

	result, err := ctrl.cartService.AddToCart(c.Request.Context(), sessionID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.CatalogProductNotFound, "We couldn't find that product")
		case errors.Is(err, service.ErrVariantNotFound):
			apperrors.BadRequest(c, apperrors.CatalogVariantNotFound, "Please choose an available option")
		case errors.Is(err, service.ErrOutOfStock):
			apperrors.Conflict(c, apperrors.CartOutOfStock, "You already have all available stock of this item in your cart")
		case errors.Is(err, service.ErrInvalidQuantity):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity must be at least 1")
		default:
			respondUpstreamError(c, log, err, "add product to cart")
		}
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"item_id": result.ItemID,
		"added":   result.Added,
		"clamped": result.Clamped,
	})
	c.JSON(http.StatusCreated, result)
}

// UpdateQuantity sets an item's quantity; below 1 removes it
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update quantity request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Quantity is required")
		return
	}

	itemID := c.Param("id")
	view, err := ctrl.cartService.UpdateQuantity(c.Request.Context(), sessionID, itemID, *req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			apperrors.NotFound(c, apperrors.CartItemNotFound, "That item is no longer in your cart")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, view)
}

// RemoveItem removes an item; removing an absent item succeeds
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ctrl.cartService.RemoveItem(c.Request.Context(), sessionID, c.Param("id")))
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ctrl.cartService.ClearCart(c.Request.Context(), sessionID))
}

// HandleWebSocket upgrades to a live cart feed for the session
// GET /api/v1/cart/ws
func (ctrl *CartController) HandleWebSocket(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID, ok := cartSession(c, log)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, sessionID)
	ctrl.hub.Register(client)

	// The page sends {"type":"sync"} once open to get the current cart
	go client.Serve()
}
