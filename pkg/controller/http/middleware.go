package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
)

// LoggingMiddleware returns a middleware that logs HTTP requests and puts the
// server logger, tagged with the request ID, into the request context
func LoggingMiddleware(ctx context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := ctxlog.From(ctx).With("request_id", middleware.GetReqID(r.Context()))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}()

			next.ServeHTTP(ww, r.WithContext(ctxlog.With(r.Context(), logger)))
		})
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	writeJSON(w, r, status, map[string]string{
		"error": err.Error(),
	})
}
