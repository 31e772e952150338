package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/spock/pkg/domain/model"
)

// MockExecutor is a spy implementation of ProcessExecutor
type MockExecutor struct {
	executeFunc  func(ctx context.Context, commands []string, workDir string) (*model.ExecutionResult, error)
	executeCalls []MockExecuteCall
}

type MockExecuteCall struct {
	Commands []string
	WorkDir  string
}

func (m *MockExecutor) Execute(ctx context.Context, commands []string, workDir string) (*model.ExecutionResult, error) {
	m.executeCalls = append(m.executeCalls, MockExecuteCall{Commands: commands, WorkDir: workDir})
	if m.executeFunc != nil {
		return m.executeFunc(ctx, commands, workDir)
	}
	return &model.ExecutionResult{Command: model.JoinCommands(commands)}, nil
}

// MockPathPrefixer is a mock implementation of PathPrefixer
type MockPathPrefixer struct {
	prefixes map[string]string
	calls    []string
}

func (m *MockPathPrefixer) PathPrefix(disk string) (string, error) {
	m.calls = append(m.calls, disk)
	p, ok := m.prefixes[disk]
	if !ok {
		return "", model.ErrUnknownDisk
	}
	return p, nil
}

// recordHandler is a slog.Handler keeping every record for inspection
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &scopedHandler{root: h, attrs: attrs}
}

func (h *recordHandler) WithGroup(string) slog.Handler { return h }

// errorRecords returns the text form of every error-level record
func (h *recordHandler) errorRecords() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []string
	for _, r := range h.records {
		if r.Level != slog.LevelError {
			continue
		}
		var buf bytes.Buffer
		th := slog.NewTextHandler(&buf, nil)
		_ = th.Handle(context.Background(), r)
		out = append(out, buf.String())
	}
	return out
}

type scopedHandler struct {
	root  *recordHandler
	attrs []slog.Attr
}

func (h *scopedHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *scopedHandler) Handle(ctx context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(h.attrs...)
	return h.root.Handle(ctx, r)
}

func (h *scopedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &scopedHandler{root: h.root, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *scopedHandler) WithGroup(string) slog.Handler { return h }

func newLoggingContext() (context.Context, *recordHandler) {
	h := &recordHandler{}
	return ctxlog.With(context.Background(), slog.New(h)), h
}

var errLaunch = errors.New("exec: \"/bin/sh\": executable file not found in $PATH")
