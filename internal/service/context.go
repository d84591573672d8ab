package service

import (
	"context"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
)

// Caller is the authenticated subject an operation runs as, with the
// role already resolved by the authorization gate.
type Caller struct {
	Subject string
	Role    auth.Role
}

// contextString reads a string value set on the request context by the
// API middleware (request id, client ip, user agent).
func contextString(ctx context.Context, key string) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
