package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/roster/internal/core"
)

// WithRequestMetadata tags ctx with the uploader's IP and User-Agent so the
// import log lines can be traced back to a client.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
