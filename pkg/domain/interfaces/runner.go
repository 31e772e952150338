package interfaces

import (
	"context"

	"github.com/m-mizutani/spock/pkg/domain/model"
)

// ProcessExecutor runs rendered commands as a single shell invocation
type ProcessExecutor interface {
	// Execute joins commands with "; " and runs them in workDir. An error is
	// returned only if the process could not be launched.
	Execute(ctx context.Context, commands []string, workDir string) (*model.ExecutionResult, error)
}

// TemplateRenderer substitutes event context values into command templates
type TemplateRenderer interface {
	Render(templates []string, ectx *model.EventContext) ([]string, error)
}

// PathPrefixer resolves the filesystem path prefix of a storage disk
type PathPrefixer interface {
	PathPrefix(disk string) (string, error)
}
