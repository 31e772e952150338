package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/cli/config"
	"github.com/m-mizutani/spock/pkg/controller/fswatch"
	"github.com/m-mizutani/spock/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdWatch() *cli.Command {
	var (
		watchCfg config.Watch
		spockCfg config.Spock
	)

	flags := append(watchCfg.Flags(), spockCfg.Flags()...)

	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Watch content, users and assets directories and run commands on change",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			spockUC, disks, err := newSpock(ctx, &spockCfg)
			if err != nil {
				return err
			}

			workDir, err := spockCfg.WorkDir()
			if err != nil {
				return err
			}

			opts := []fswatch.Option{fswatch.WithPatterns(watchCfg.Patterns...)}
			if dir, ok := disks.Root(model.DiskContent); ok {
				opts = append(opts, fswatch.WithContentDir(dir))
			}
			if dir, ok := disks.Root(model.DiskUsers); ok {
				opts = append(opts, fswatch.WithUsersDir(dir))
			}
			if dir := watchCfg.AssetsDir; dir != "" {
				if !filepath.IsAbs(dir) {
					dir = filepath.Join(workDir, dir)
				}
				opts = append(opts, fswatch.WithAssetsDir(dir))
			}

			watcher, err := fswatch.New(spockUC, opts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create filesystem watcher")
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := watcher.Run(ctx); err != nil {
				return goerr.Wrap(err, "filesystem watcher failed")
			}

			ctxlog.From(ctx).Info("Watcher stopped")
			return nil
		},
	}
}
