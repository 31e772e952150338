package async

import (
	"context"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/spock/pkg/utils/errutil"
)

// Dispatch executes a handler function asynchronously with proper context and panic recovery
//
// Parameters:
//   - ctx: Original context (values will be preserved, but cancellation won't affect the async handler)
//   - handler: Function to execute asynchronously
//
// Behavior:
//   - Creates a new background context with preserved logger
//   - Executes handler in a new goroutine
//   - Recovers from panics, logs them and reports them to Sentry
//   - Handles errors returned by handler through errutil.Handle
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(newCtx)
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(stack))
				hubFrom(newCtx).Recover(r)
			}
		}()

		if err := handler(newCtx); err != nil {
			errutil.Handle(newCtx, "error in async handler", err)
		}
	}()
}

// newBackgroundContext creates a new background context preserving important values
//
// Preserved values:
//   - ctxlog logger
//   - Sentry hub, if any
//
// Returns: New context.Background() with preserved values
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		newCtx = sentry.SetHubOnContext(newCtx, hub)
	}
	return newCtx
}

func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}
