package interfaces

import (
	"context"

	"github.com/m-mizutani/spock/pkg/domain/model"
)

// EventUseCase defines the interface for CMS event processing
type EventUseCase interface {
	// HandleEvent runs the configured commands for an event. Command failures
	// are logged, not returned; errors are returned only when nothing could be
	// executed.
	HandleEvent(ctx context.Context, event *model.Event) error
}
