package httpapi

import "context"

// serverBaseCtx is cancelled when the process starts shutting down. New
// embedding requests and those still queued for the model are refused once
// it ends; requests already encoding are left for the server to drain.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level shutdown context. Nil resets it to
// Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives from a and is also cancelled, with b's cause, when b
// ends. The returned cancel releases the AfterFunc registration.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(a)
	stop := context.AfterFunc(b, func() { cancel(context.Cause(b)) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}
