package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the request ID
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key the request ID is stored under
const RequestIDKey = "request_id"

// RequestID assigns each request a unique ID, reusing an inbound one when the
// caller already set the header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request ID from the gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
