package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware assigns each request an id (honoring an inbound
// X-Request-ID) and copies id, client ip and user agent into the
// request context so the audit trail can pick them up downstream.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, "request_id", requestID)             //nolint:staticcheck
		ctx = context.WithValue(ctx, "ip", c.ClientIP())                  //nolint:staticcheck
		ctx = context.WithValue(ctx, "user_agent", c.Request.UserAgent()) //nolint:staticcheck
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
