package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key for the request ID.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware assigns every request a unique ID, honoring an
// X-Request-ID header if the caller supplied one, and echoes it back.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

// RequestID returns the request ID set by RequestIDMiddleware. If the
// middleware was not applied it generates one so responses are never
// missing a trace ID.
func RequestID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyRequestID)
	id, ok := v.(string)
	if !ok || id == "" {
		id = uuid.New().String()
	}
	return id
}
