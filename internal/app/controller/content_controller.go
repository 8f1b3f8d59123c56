package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/internal/app/model"
	"github.com/ikkim/handmade-storefront/internal/app/service"
	apperrors "github.com/ikkim/handmade-storefront/internal/errors"
	"github.com/ikkim/handmade-storefront/internal/middleware"
)

type ContentController struct {
	contentService service.ContentService
}

func NewContentController(contentService service.ContentService) *ContentController {
	return &ContentController{
		contentService: contentService,
	}
}

// ListFAQs
// GET /api/v1/faq
func (ctrl *ContentController) ListFAQs(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	faqs, err := ctrl.contentService.ListFAQs(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, log, err, "list faq")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"faqs": faqs,
	})
}

// GetLegalPage returns a legal page (terms, privacy, shipping)
// GET /api/v1/legal/:slug
func (ctrl *ContentController) GetLegalPage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, err := ctrl.contentService.GetLegalPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrContentNotFound) {
			apperrors.NotFound(c, apperrors.ContentNotFound, "We couldn't find that page")
			return
		}
		respondUpstreamError(c, log, err, "get legal page")
		return
	}

	c.JSON(http.StatusOK, page)
}

// ListArticles
// GET /api/v1/articles?page=&page_size=
func (ctrl *ContentController) ListArticles(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, err := ctrl.contentService.ListArticles(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "page_size", 0))
	if err != nil {
		respondUpstreamError(c, log, err, "list articles")
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetArticle
// GET /api/v1/articles/:slug
func (ctrl *ContentController) GetArticle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	article, err := ctrl.contentService.GetArticle(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrContentNotFound) {
			apperrors.NotFound(c, apperrors.ContentNotFound, "We couldn't find that article")
			return
		}
		respondUpstreamError(c, log, err, "get article")
		return
	}

	c.JSON(http.StatusOK, article)
}

// SubmitContact forwards the contact form
// POST /api/v1/contact
func (ctrl *ContentController) SubmitContact(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req model.ContactMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid contact form", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validationFields(err))
		return
	}

	if err := ctrl.contentService.SubmitContactMessage(c.Request.Context(), req); err != nil {
		respondUpstreamError(c, log, err, "send contact message")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Thanks for getting in touch. We'll reply soon",
	})
}
