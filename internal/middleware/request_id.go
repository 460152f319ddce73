package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID trusts an inbound X-Request-Id when present (the SDK stamps one on
// every call) and mints one otherwise, so stub logs correlate with client logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDHeader, id)
		c.Writer.Header().Set(requestIDHeader, id)

		c.Next()
	}
}

// RequestIDFrom returns the request's correlation ID, empty outside the
// RequestID middleware.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDHeader)
}
