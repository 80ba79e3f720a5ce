package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/sheetnotify/internal/core"
)

// withRunMetadata tags a run context with its trigger and the client IP.
func withRunMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithTrigger(ctx, core.TriggerHTTP)
	return core.ContextWithIPAddress(ctx, clientIP(r))
}
