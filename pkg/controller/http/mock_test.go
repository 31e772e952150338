package http_test

import (
	"context"
	"sync"

	"github.com/m-mizutani/spock/pkg/domain/model"
)

// MockEventUseCase is a mock implementation of EventUseCase
type MockEventUseCase struct {
	mu               sync.Mutex
	handleEventFunc  func(ctx context.Context, event *model.Event) error
	handleEventCalls []*model.Event
}

func (m *MockEventUseCase) HandleEvent(ctx context.Context, event *model.Event) error {
	m.mu.Lock()
	m.handleEventCalls = append(m.handleEventCalls, event)
	m.mu.Unlock()

	if m.handleEventFunc != nil {
		return m.handleEventFunc(ctx, event)
	}
	return nil
}

func (m *MockEventUseCase) calls() []*model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Event(nil), m.handleEventCalls...)
}

// syncDispatch runs the handler inline so tests can inspect its effects
func syncDispatch(ctx context.Context, handler func(ctx context.Context) error) {
	_ = handler(ctx)
}
