package async_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/spock/pkg/utils/async"
)

// lockedBuffer serializes writes from the dispatched goroutine
type lockedBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (lb *lockedBuffer) Write(p []byte) (int, error) {
	lb.m.Lock()
	defer lb.m.Unlock()
	return lb.b.Write(p)
}

func (lb *lockedBuffer) String() string {
	lb.m.Lock()
	defer lb.m.Unlock()
	return lb.b.String()
}

// notifyHandler signals each written ERROR record
type notifyHandler struct {
	slog.Handler
	written chan struct{}
}

func newNotifyLogger(buf *lockedBuffer) (*slog.Logger, chan struct{}) {
	written := make(chan struct{}, 8)
	h := &notifyHandler{
		Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelError}),
		written: written,
	}
	return slog.New(h), written
}

func (h *notifyHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.Handler.Handle(ctx, r)
	h.written <- struct{}{}
	return err
}

func (h *notifyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &notifyHandler{Handler: h.Handler.WithAttrs(attrs), written: h.written}
}

func (h *notifyHandler) WithGroup(name string) slog.Handler {
	return &notifyHandler{Handler: h.Handler.WithGroup(name), written: h.written}
}

func waitWritten(t *testing.T, written chan struct{}) {
	t.Helper()
	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("no log record written within timeout")
	}
}

func TestDispatch_RunsHandler(t *testing.T) {
	done := make(chan string, 1)

	async.Dispatch(context.Background(), func(ctx context.Context) error {
		done <- "evt-1"
		return nil
	})

	select {
	case id := <-done:
		gt.Value(t, id).Equal("evt-1")
	case <-time.After(time.Second):
		t.Fatal("handler did not run within timeout")
	}
}

func TestDispatch_LogsHandlerError(t *testing.T) {
	buf := &lockedBuffer{}
	logger, written := newNotifyLogger(buf)
	ctx := ctxlog.With(context.Background(), logger)

	async.Dispatch(ctx, func(ctx context.Context) error {
		return goerr.New("event handling failed",
			goerr.V("event_id", "delivery-42"),
			goerr.V("exit_code", 2),
		)
	})

	waitWritten(t, written)
	out := buf.String()
	gt.True(t, strings.Contains(out, "error in async handler"))
	gt.True(t, strings.Contains(out, "event handling failed"))
	gt.True(t, strings.Contains(out, "event_id=delivery-42"))
	gt.True(t, strings.Contains(out, "exit_code=2"))
}

func TestDispatch_RecoversPanic(t *testing.T) {
	buf := &lockedBuffer{}
	logger, written := newNotifyLogger(buf)
	ctx := ctxlog.With(context.Background(), logger)

	async.Dispatch(ctx, func(ctx context.Context) error {
		panic("renderer exploded")
	})

	waitWritten(t, written)
	out := buf.String()
	gt.True(t, strings.Contains(out, "panic in async handler"))
	gt.True(t, strings.Contains(out, "renderer exploded"))
	gt.True(t, strings.Contains(out, "goroutine"))
	gt.True(t, strings.Contains(out, "dispatch_test.go"))
}

func TestDispatch_DetachesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan bool, 1)

	async.Dispatch(ctx, func(newCtx context.Context) error {
		cancel()
		select {
		case <-newCtx.Done():
			cancelled <- true
		default:
			cancelled <- false
		}
		return nil
	})

	select {
	case v := <-cancelled:
		gt.False(t, v)
	case <-time.After(time.Second):
		t.Fatal("handler did not run within timeout")
	}
}

func TestDispatch_PreservesLoggerAndHub(t *testing.T) {
	buf := &lockedBuffer{}
	logger, written := newNotifyLogger(buf)
	hub := sentry.NewHub(nil, sentry.NewScope())

	ctx := ctxlog.With(context.Background(), logger)
	ctx = sentry.SetHubOnContext(ctx, hub)

	gotHub := make(chan *sentry.Hub, 1)
	async.Dispatch(ctx, func(newCtx context.Context) error {
		ctxlog.From(newCtx).Error("logged from dispatched handler")
		gotHub <- sentry.GetHubFromContext(newCtx)
		return nil
	})

	waitWritten(t, written)
	gt.True(t, strings.Contains(buf.String(), "logged from dispatched handler"))

	select {
	case h := <-gotHub:
		gt.True(t, h == hub)
	case <-time.After(time.Second):
		t.Fatal("handler did not run within timeout")
	}
}
