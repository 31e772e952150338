package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/cli/config"
	"github.com/m-mizutani/spock/pkg/infra/disk"
	"github.com/m-mizutani/spock/pkg/infra/placeholder"
	"github.com/m-mizutani/spock/pkg/infra/shell"
	"github.com/m-mizutani/spock/pkg/usecase"
)

// newSpock builds the Spock use case from command runner configuration. The
// returned disks are the ones the use case resolves paths with.
func newSpock(ctx context.Context, spockCfg *config.Spock) (*usecase.Spock, *disk.Disks, error) {
	cfg, err := spockCfg.Load()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load configuration")
	}

	workDir, err := spockCfg.WorkDir()
	if err != nil {
		return nil, nil, err
	}

	disks, err := disk.New(workDir, cfg.Disks)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure disks")
	}

	executor := shell.New(shell.WithShell(cfg.Shell))
	renderer := placeholder.New(placeholder.WithShellEscape(cfg.ShellEscape))

	uc := usecase.NewSpock(executor, renderer, disks,
		usecase.WithEnvironment(spockCfg.Environment),
		usecase.WithWhitelist(cfg.Environments...),
		usecase.WithCommands(cfg.Commands...),
		usecase.WithWorkDir(workDir),
	)

	logger := ctxlog.From(ctx)
	logger.Info("Command runner configured",
		slog.String("environment", spockCfg.Environment),
		slog.Any("whitelist", cfg.Environments),
		slog.Bool("allowed", uc.Allowed()),
		slog.Int("commands", len(cfg.Commands)),
		slog.String("work_dir", workDir),
		slog.String("shell", executor.Shell()),
		slog.Any("disks", disks.Names()),
		slog.Bool("shell_escape", cfg.ShellEscape),
	)
	if !uc.Allowed() {
		logger.Warn("Current environment is not whitelisted, no command will run",
			slog.String("environment", spockCfg.Environment),
		)
	}
	if !cfg.ShellEscape && len(cfg.Commands) > 0 {
		logger.Debug("Event values are substituted into commands without shell escaping")
	}

	return uc, disks, nil
}
