package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/dialect/internal/core"
)

// withRequestMetadata copies the client IP and user agent into ctx so job
// logs can name the caller.
func withRequestMetadata(r *http.Request) context.Context {
	ctx := core.ContextWithIPAddress(r.Context(), clientIP(r))
	return core.ContextWithUserAgent(ctx, r.UserAgent())
}
