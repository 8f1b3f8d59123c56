package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/internal/errors"
)

// WebhookAuth requires "Authorization: Bearer <secret>". An empty secret
// rejects every call so an unconfigured deployment is closed.
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if secret == "" || len(parts) != 2 || parts[0] != "Bearer" ||
			subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
			log.Warn("Webhook rejected", map[string]interface{}{
				"path":       c.Request.URL.Path,
				"configured": secret != "",
			})
			errors.Unauthorized(c, errors.WebhookUnauthorized, "Invalid webhook credentials")
			c.Abort()
			return
		}

		c.Next()
	}
}
