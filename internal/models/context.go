package models

import (
	"context"
	"time"
)

type requestContextKey struct{}

// RequestContext carries per-request metadata from the HTTP layer down to the
// presale service so log lines can be correlated without widening its API.
type RequestContext struct {
	RequestId  string
	ClientIP   string
	ReceivedAt time.Time
}

// WithRequestContext attaches request metadata to a context.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// GetRequestContext retrieves request metadata from context, or nil if absent.
func GetRequestContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}
