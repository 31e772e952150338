package errutil

import (
	"context"
	"log/slog"
	"sort"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err at error level with msg, attaching the goerr values of the
// error chain as attributes, and reports it to Sentry when a client is
// configured. It emits exactly one log record.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	attrs := []any{slog.String("error", err.Error())}
	attrs = append(attrs, valueAttrs(err)...)
	ctxlog.From(ctx).Error(msg, attrs...)

	report(ctx, err)
}

func valueAttrs(err error) []any {
	gerr := goerr.Unwrap(err)
	if gerr == nil {
		return nil
	}

	values := gerr.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, values[k]))
	}
	return attrs
}

// sentryContextKey names the event context holding goerr values
const sentryContextKey = "goerr"

func report(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub = hub.Clone()
	if gerr := goerr.Unwrap(err); gerr != nil {
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetContext(sentryContextKey, sentry.Context(gerr.Values()))
		})
	}

	if eventID := hub.CaptureException(err); eventID != nil {
		ctxlog.From(ctx).Debug("Error reported to Sentry", slog.String("sentry_event_id", string(*eventID)))
	}
}
