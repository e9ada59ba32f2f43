package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID in and out
	RequestIDHeader = "X-Request-ID"

	traceIDKey      = "trace_id"
	maxRequestIDLen = 64
)

// RequestIDMiddleware tags each request with a trace ID. A well-formed
// incoming X-Request-ID is kept so callers can correlate logs; anything
// else is replaced with a fresh time-ordered UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(RequestIDHeader)
		if !validRequestID(traceID) {
			traceID = uuid.Must(uuid.NewV7()).String()
		}

		c.Set(traceIDKey, traceID)
		c.Header(RequestIDHeader, traceID)
		c.Next()
	}
}

// TraceID returns the ID assigned by RequestIDMiddleware
func TraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
