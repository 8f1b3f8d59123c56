package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apperrors "github.com/ikkim/handmade-storefront/internal/errors"
	"github.com/ikkim/handmade-storefront/internal/middleware"
	"github.com/ikkim/handmade-storefront/pkg/logger"
)

// cartSession returns the request's cart session or answers 400
func cartSession(c *gin.Context, log *logger.Logger) (string, bool) {
	sessionID, ok := middleware.GetCartSessionID(c)
	if !ok {
		log.Warn("Request without cart session", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.BadRequest(c, apperrors.CartSessionAbsent, "Your cart session is missing. Please reload the page")
		return "", false
	}
	return sessionID, true
}

// respondUpstreamError answers 502 for transient upstream failures and
// 500 for anything else
func respondUpstreamError(c *gin.Context, log *logger.Logger, err error, action string) {
	info := apperrors.ParseError(err, action)
	if apperrors.IsTransient(err) {
		log.Warn("Upstream unavailable", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
		apperrors.BadGateway(c, info.Code, info.Message)
		return
	}
	log.Error("Request failed", err, map[string]interface{}{
		"action": action,
	})
	apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
}

// queryInt reads an integer query parameter, falling back on absent or
// malformed input
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// validationFields maps binding failures to per-field messages keyed by
// the JSON field name
func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": "Request body is not valid JSON"}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = "This field is required"
		case "email":
			fields[name] = "Please enter a valid email address"
		case "max":
			fields[name] = "This field is too long"
		default:
			fields[name] = "This value is not valid"
		}
	}
	return fields
}
