package errors

import (
	"context"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a message fit to show a shopper
type ErrorInfo struct {
	Code    string
	Message string
}

const transientMessage = "We couldn't reach the shop right now. Please try again in a moment"

// ParseError turns an internal error into a user-facing code and message.
// Internal details never leak into the message.
func ParseError(err error, action string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(action),
		}
	}

	if IsTransient(err) {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: transientMessage,
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(action),
	}
}

// IsTransient reports whether err looks like a network failure talking to
// an upstream service
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStrLower := strings.ToLower(err.Error())
	return strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") ||
		strings.Contains(errStrLower, "circuit breaker is open") ||
		strings.Contains(errStrLower, "unavailable")
}

func getNotFoundMessage(action string) string {
	actionLower := strings.ToLower(action)

	switch {
	case strings.Contains(actionLower, "product"):
		return "We couldn't find that product"
	case strings.Contains(actionLower, "article"):
		return "We couldn't find that article"
	case strings.Contains(actionLower, "legal"), strings.Contains(actionLower, "page"):
		return "We couldn't find that page"
	case strings.Contains(actionLower, "cart"):
		return "That item is no longer in your cart"
	}
	return "We couldn't find what you were looking for"
}

func getDefaultErrorMessage(action string) string {
	actionLower := strings.ToLower(action)

	switch {
	case strings.Contains(actionLower, "checkout"):
		return "We couldn't start checkout. Your cart has been kept, please try again"
	case strings.Contains(actionLower, "contact"):
		return "We couldn't send your message. Please try again"
	}
	return "Something went wrong. Please try again in a moment"
}

// ParseAndRespond parses err and writes the response in one step
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, action string) {
	errorInfo := ParseError(err, action)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
