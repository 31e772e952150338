package cli

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/spock/pkg/cli/config"
	"github.com/m-mizutani/spock/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		logger    *slog.Logger
	)

	app := &cli.Command{
		Name:    "spock",
		Usage:   "Run shell commands when CMS content is published or assets are uploaded",
		Version: types.Version,
		Flags:   append(loggerCfg.Flags(), sentryCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)

			enabled, err := sentryCfg.Configure()
			if err != nil {
				return nil, err
			}
			if enabled {
				logger.Info("Sentry error reporting enabled", slog.String("env", sentryCfg.Env))
				ctx = sentry.SetHubOnContext(ctx, sentry.CurrentHub())
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			sentryCfg.Flush()
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdWatch(),
			cmdRun(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}
