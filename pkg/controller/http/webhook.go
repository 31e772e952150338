package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/interfaces"
	"github.com/m-mizutani/spock/pkg/domain/model"
	"github.com/m-mizutani/spock/pkg/utils/async"
)

const (
	// HeaderSignature carries "sha256=<hex HMAC-SHA256 of the body>"
	HeaderSignature = "X-Spock-Signature-256"
	// HeaderDelivery carries the sender's delivery ID
	HeaderDelivery = "X-Spock-Delivery"

	maxPayloadSize = 10 << 20
)

// Dispatcher runs a handler outside of the request lifecycle
type Dispatcher func(ctx context.Context, handler func(ctx context.Context) error)

// WebhookHandler handles CMS event webhooks
type WebhookHandler struct {
	secret   string
	eventUC  interfaces.EventUseCase
	dispatch Dispatcher
}

// NewWebhookHandler creates a new WebhookHandler. A nil dispatcher uses
// async.Dispatch.
func NewWebhookHandler(secret string, eventUC interfaces.EventUseCase, dispatch Dispatcher) *WebhookHandler {
	if dispatch == nil {
		dispatch = async.Dispatch
	}
	return &WebhookHandler{
		secret:   secret,
		eventUC:  eventUC,
		dispatch: dispatch,
	}
}

// Handle returns a handler accepting events of the given type. Events are
// acknowledged with 202 before commands run; command failures are never
// reported to the sender.
func (h *WebhookHandler) Handle(eventType model.EventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := ctxlog.From(ctx)

		// Read payload
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
		if err != nil {
			logger.Error("Failed to read request body", "error", err)
			writeError(w, r, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		// Verify signature
		if h.secret != "" && !h.verifySignature(body, r.Header.Get(HeaderSignature)) {
			logger.Warn("Invalid webhook signature")
			writeError(w, r, goerr.New("invalid signature"), http.StatusUnauthorized)
			return
		}

		event, err := model.ParseEventPayload(eventType, body)
		if err != nil {
			logger.Warn("Invalid event payload", "error", err)
			status := http.StatusBadRequest
			if !errors.Is(err, model.ErrInvalidEvent) {
				status = http.StatusInternalServerError
			}
			writeError(w, r, err, status)
			return
		}

		if id := r.Header.Get(HeaderDelivery); id != "" {
			event.ID = id
		}
		if event.ID == "" {
			event.ID = uuid.NewString()
		}

		logger.Info("Accepted CMS event",
			"id", event.ID,
			"type", event.Type,
			"kind", event.Entity.Kind(),
		)

		h.dispatch(ctx, func(ctx context.Context) error {
			return h.eventUC.HandleEvent(ctx, event)
		})

		writeJSON(w, r, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"id":     event.ID,
		})
	}
}

// verifySignature verifies the webhook signature
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	// Calculate HMAC-SHA256
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
