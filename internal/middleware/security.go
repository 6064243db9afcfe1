package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders adds various security headers to the response
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Clickjacking protection
		c.Header("X-Frame-Options", "DENY")

		// MIME type sniffing protection. Downloads are served as
		// application/octet-stream and must stay that way.
		c.Header("X-Content-Type-Options", "nosniff")

		// Referrer Policy
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}
