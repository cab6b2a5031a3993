package httpapi

import (
	"context"
	"net/http"
)

// serverBaseCtx is a process-level context that is canceled on shutdown.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// generationContext derives the context a generation runs under. It keeps the
// request's values but not its cancellation: a client that disconnects does
// not stop the runner. Server shutdown does.
// The returned cancel func must be called when the handler ends.
func generationContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	stop := context.AfterFunc(serverBaseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
