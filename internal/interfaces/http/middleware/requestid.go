// Package middleware contains the gin middleware chain for the HTTP
// interface.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header carrying the correlation identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin context key the identifier is stored under.
	RequestIDKey = "request_id"
)

// RequestID propagates an incoming X-Request-ID or generates a fresh one.
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

// GetRequestID returns the correlation identifier for the current request.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(RequestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
