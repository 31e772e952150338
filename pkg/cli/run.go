package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/cli/config"
	"github.com/m-mizutani/spock/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// output receives dry-run listings
var output io.Writer = os.Stdout

func cmdRun() *cli.Command {
	var (
		spockCfg  config.Spock
		eventFile string
		eventType string
		dryRun    bool
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "event",
			Aliases:     []string{"e"},
			Usage:       "Event payload JSON file, '-' for stdin",
			Value:       "-",
			Destination: &eventFile,
		},
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Event type (published, asset_uploaded)",
			Value:       string(model.EventTypePublished),
			Destination: &eventType,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Print rendered commands without executing them",
			Destination: &dryRun,
		},
	}, spockCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Handle a single event payload and exit",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			raw, err := readEventFile(eventFile)
			if err != nil {
				return err
			}

			event, err := model.ParseEventPayload(model.EventType(eventType), raw)
			if err != nil {
				return goerr.Wrap(err, "failed to parse event", goerr.V("file", eventFile))
			}
			if event.ID == "" {
				event.ID = "cli"
			}

			spockUC, _, err := newSpock(ctx, &spockCfg)
			if err != nil {
				return err
			}

			if !dryRun {
				return spockUC.HandleEvent(ctx, event)
			}

			rendered, err := spockUC.Plan(ctx, event)
			if err != nil {
				return err
			}
			printPlan(output, spockUC.Allowed(), rendered)
			return nil
		},
	}
}

func readEventFile(path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read event from stdin")
		}
		return raw, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read event file", goerr.V("file", path))
	}
	return raw, nil
}

func printPlan(w io.Writer, allowed bool, rendered []string) {
	header := color.New(color.Bold)
	cmd := color.New(color.FgCyan)

	if allowed {
		_, _ = color.New(color.FgGreen).Fprintln(w, "environment whitelisted: commands would run")
	} else {
		_, _ = color.New(color.FgYellow).Fprintln(w, "environment not whitelisted: commands would be skipped")
	}

	for i, line := range rendered {
		_, _ = header.Fprintf(w, "[%d] ", i+1)
		_, _ = cmd.Fprintln(w, line)
	}
	_, _ = header.Fprint(w, "joined: ")
	_, _ = fmt.Fprintln(w, model.JoinCommands(rendered))
}
