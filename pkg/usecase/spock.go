package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/interfaces"
	"github.com/m-mizutani/spock/pkg/domain/model"
	"github.com/m-mizutani/spock/pkg/utils/errutil"
)

// Spock runs configured shell commands in response to CMS events
type Spock struct {
	environment string
	whitelist   []string
	commands    []string
	workDir     string

	executor interfaces.ProcessExecutor
	renderer interfaces.TemplateRenderer
	disks    interfaces.PathPrefixer
}

// SpockOption is a functional option for Spock
type SpockOption func(*Spock)

// WithEnvironment sets the name of the current runtime environment
func WithEnvironment(env string) SpockOption {
	return func(uc *Spock) {
		uc.environment = env
	}
}

// WithWhitelist sets the environments permitted to execute commands
func WithWhitelist(envs ...string) SpockOption {
	return func(uc *Spock) {
		uc.whitelist = append([]string(nil), envs...)
	}
}

// WithCommands sets the command templates
func WithCommands(commands ...string) SpockOption {
	return func(uc *Spock) {
		uc.commands = append([]string(nil), commands...)
	}
}

// WithWorkDir sets the working directory of the spawned shell
func WithWorkDir(dir string) SpockOption {
	return func(uc *Spock) {
		uc.workDir = dir
	}
}

// NewSpock creates a new Spock use case
func NewSpock(
	executor interfaces.ProcessExecutor,
	renderer interfaces.TemplateRenderer,
	disks interfaces.PathPrefixer,
	opts ...SpockOption,
) *Spock {
	uc := &Spock{
		executor: executor,
		renderer: renderer,
		disks:    disks,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Allowed reports whether the current environment is whitelisted
func (uc *Spock) Allowed() bool {
	return IsAllowed(uc.environment, uc.whitelist)
}

// Plan renders the commands for an event without executing them
func (uc *Spock) Plan(ctx context.Context, event *model.Event) ([]string, error) {
	if event == nil || !event.IsSupportedEvent() {
		return nil, goerr.Wrap(model.ErrInvalidEvent, "unsupported event")
	}

	ectx, err := BuildContext(event.Entity, event.Committer, uc.disks)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build event context", goerr.V("event_id", event.ID))
	}

	rendered, err := uc.renderer.Render(uc.commands, ectx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render commands", goerr.V("event_id", event.ID))
	}

	return rendered, nil
}

// HandleEvent runs the configured commands for a published or asset-uploaded
// event. Launch failures and non-zero exits are logged and do not produce an
// error.
func (uc *Spock) HandleEvent(ctx context.Context, event *model.Event) error {
	if event == nil {
		return goerr.Wrap(model.ErrInvalidEvent, "event is nil")
	}

	logger := ctxlog.From(ctx).With(
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
	)
	ctx = ctxlog.With(ctx, logger)

	if !uc.Allowed() {
		logger.Debug("Environment is not whitelisted, skipping commands",
			slog.String("environment", uc.environment),
		)
		return nil
	}

	if len(uc.commands) == 0 {
		logger.Debug("No commands configured")
		return nil
	}

	rendered, err := uc.Plan(ctx, event)
	if err != nil {
		return err
	}
	command := model.JoinCommands(rendered)

	result, err := uc.executor.Execute(ctx, rendered, uc.workDir)
	if err != nil {
		errutil.Handle(ctx, "Command hit an exception",
			goerr.Wrap(err, "failed to launch command", goerr.V("command", command)),
		)
		return nil
	}

	if !result.Succeeded() {
		errutil.Handle(ctx, "Command exited unsuccessfully",
			goerr.New("command exited unsuccessfully",
				goerr.V("command", command),
				goerr.V("exit_code", result.ExitCode),
				goerr.V("stderr", result.Stderr),
				goerr.V("stdout", result.Stdout),
			),
		)
		return nil
	}

	logger.Info("Command completed",
		slog.String("command", command),
		slog.Int("exit_code", result.ExitCode),
		slog.Duration("duration", result.Duration),
	)

	return nil
}

// HandleAssetUploaded runs the configured commands for an uploaded asset
func (uc *Spock) HandleAssetUploaded(ctx context.Context, asset *model.AssetEntity, committer map[string]any) error {
	if asset == nil {
		return goerr.Wrap(model.ErrInvalidEntity, "asset is nil")
	}

	return uc.HandleEvent(ctx, &model.Event{
		Type:      model.EventTypeAssetUploaded,
		Entity:    asset,
		Committer: committer,
	})
}
