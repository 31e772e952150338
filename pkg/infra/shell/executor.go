package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/model"
)

// DefaultShell is used when no shell is configured
const DefaultShell = "/bin/sh"

// Executor runs commands through a POSIX shell on the local system
type Executor struct {
	shell string
}

// Option configures Executor
type Option func(*Executor)

// WithShell sets the shell binary invoked as `<shell> -c <command>`
func WithShell(shell string) Option {
	return func(e *Executor) {
		if shell != "" {
			e.shell = shell
		}
	}
}

// New creates a new Executor
func New(opts ...Option) *Executor {
	e := &Executor{shell: DefaultShell}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Shell returns the configured shell binary
func (e *Executor) Shell() string {
	return e.shell
}

// Execute runs the joined commands and blocks until the shell exits. A
// non-zero exit code is reported in the result, not as an error.
func (e *Executor) Execute(ctx context.Context, commands []string, workDir string) (*model.ExecutionResult, error) {
	command := model.JoinCommands(commands)
	result := &model.ExecutionResult{Command: command}
	if len(commands) == 0 {
		return result, nil
	}

	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		return nil, goerr.Wrap(model.ErrLaunchFailed, err.Error(),
			goerr.V("command", command),
			goerr.V("shell", e.shell),
			goerr.V("work_dir", workDir),
		)
	}

	return result, nil
}
