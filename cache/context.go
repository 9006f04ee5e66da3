package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const cacheContextKey contextKey = "nuget.cache.context"

// SourceCacheContext carries per-session cache policy. The host builds
// one at startup and installs it on every request context, so the
// protocol layer can honor the flags without threading an extra
// parameter everywhere.
type SourceCacheContext struct {
	// MaxAge bounds how stale a disk-cached response may be. Zero
	// means the protocol layer's default.
	MaxAge time.Duration

	// NoCache skips disk cache reads entirely.
	NoCache bool

	// DirectDownload fetches from the network without writing the
	// response back to disk.
	DirectDownload bool

	// SessionID is sent as X-NuGet-Session-Id so server-side logs can
	// group one panel session, the way NuGet.Client does.
	SessionID string
}

// NewSourceCacheContext returns the policy a fresh session starts with:
// a thirty minute cache window and a new session id.
func NewSourceCacheContext() *SourceCacheContext {
	return &SourceCacheContext{
		MaxAge:    30 * time.Minute,
		SessionID: uuid.New().String(),
	}
}

// WithCacheContext installs cacheCtx on ctx; nil leaves ctx untouched.
func WithCacheContext(ctx context.Context, cacheCtx *SourceCacheContext) context.Context {
	if cacheCtx == nil {
		return ctx
	}
	return context.WithValue(ctx, cacheContextKey, cacheCtx)
}

// FromContext returns the installed cache policy, or nil when the
// request carries none.
func FromContext(ctx context.Context) *SourceCacheContext {
	if ctx == nil {
		return nil
	}
	if cacheCtx, ok := ctx.Value(cacheContextKey).(*SourceCacheContext); ok {
		return cacheCtx
	}
	return nil
}
