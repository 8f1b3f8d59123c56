package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/handmade-storefront/pkg/util"
)

// CartSessionIDKey is the gin context key holding the cart session id
const CartSessionIDKey = "cart_session_id"

type CartSessionMiddleware struct {
	secret     string
	cookieName string
	maxAge     time.Duration
	secure     bool
}

func NewCartSessionMiddleware(secret, cookieName string, maxAge time.Duration, secure bool) *CartSessionMiddleware {
	return &CartSessionMiddleware{
		secret:     secret,
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
	}
}

// Attach resolves the cart session from the signed cookie. A missing,
// expired or tampered cookie starts a new session; it never rejects.
func (m *CartSessionMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
			sessionID, err := util.ValidateSessionToken(token, m.secret)
			if err == nil {
				c.Set(CartSessionIDKey, sessionID)
				c.Next()
				return
			}
			log.Debug("Cart session cookie rejected, starting a new session", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
		}

		sessionID := util.NewSessionID()
		token, err := util.GenerateSessionToken(sessionID, m.secret, m.maxAge)
		if err != nil {
			log.Error("Failed to issue cart session", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(m.cookieName, token, int(m.maxAge.Seconds()), "/", "", m.secure, true)
		c.Set(CartSessionIDKey, sessionID)

		log.Debug("Cart session issued", map[string]interface{}{
			"cart_session": sessionID,
		})
		c.Next()
	}
}

// GetCartSessionID extracts the cart session id from context
func GetCartSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get(CartSessionIDKey)
	if !exists {
		return "", false
	}
	id, ok := sessionID.(string)
	return id, ok && id != ""
}
