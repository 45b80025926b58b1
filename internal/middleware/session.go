// Package middleware holds the console's gin middleware.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/session"
)

// ForwardSession copies the caller's bearer token onto the request context so
// school API calls made for this request act as the caller.
func ForwardSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := session.BearerFromHeader(c.GetHeader("Authorization")); token != "" {
			c.Request = c.Request.WithContext(session.WithToken(c.Request.Context(), token))
		}
		c.Next()
	}
}
