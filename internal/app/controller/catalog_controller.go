package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/internal/app/service"
	apperrors "github.com/ikkim/handmade-storefront/internal/errors"
	"github.com/ikkim/handmade-storefront/internal/middleware"
)

type CatalogController struct {
	catalogService service.CatalogService
}

func NewCatalogController(catalogService service.CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

// ListProducts returns one page of products
// GET /api/v1/products?category=&page=&page_size=
func (ctrl *CatalogController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.ProductListOptions{
		Category: c.Query("category"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}

	page, err := ctrl.catalogService.ListProducts(c.Request.Context(), opts)
	if err != nil {
		respondUpstreamError(c, log, err, "list products")
		return
	}

	log.Info("Products fetched", map[string]interface{}{
		"category": opts.Category,
		"count":    len(page.Products),
	})
	c.JSON(http.StatusOK, page)
}

// GetProduct returns one product by slug
// GET /api/v1/products/:slug
func (ctrl *CatalogController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	slug := c.Param("slug")

	product, err := ctrl.catalogService.GetProduct(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.CatalogProductNotFound, "We couldn't find that product")
			return
		}
		respondUpstreamError(c, log, err, "get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListCategories returns every category
// GET /api/v1/categories
func (ctrl *CatalogController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, log, err, "list categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}
