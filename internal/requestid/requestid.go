package requestid

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the request id in both directions.
const Header = "X-Request-Id"

type contextKey struct{}

// New returns a fresh request id.
func New() string {
	return uuid.NewString()
}

// WithContext stores id in ctx. Blank ids are ignored.
func WithContext(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
