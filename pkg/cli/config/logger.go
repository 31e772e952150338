package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/urfave/cli/v3"
)

// Logger holds logger configuration
type Logger struct {
	Level string
	JSON  bool

	// Output is the log destination. Defaults to stdout.
	Output io.Writer
}

// Flags returns CLI flags for logger configuration
func (c *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &c.Level,
			Sources:     cli.EnvVars("SPOCK_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:        "log-json",
			Usage:       "Output logs in JSON format",
			Value:       false,
			Destination: &c.JSON,
			Sources:     cli.EnvVars("SPOCK_LOG_JSON"),
		},
	}
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Configure configures and returns a logger. Values tagged `masq:"secret"` and
// webhook secrets are redacted.
func (c *Logger) Configure() (*slog.Logger, error) {
	level, ok := logLevels[strings.ToLower(c.Level)]
	if !ok {
		return nil, goerr.New("invalid log level", goerr.V("level", c.Level))
	}

	w := c.Output
	if w == nil {
		w = os.Stdout
	}

	filter := masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("WebhookSecret"),
		masq.WithFieldName("SentryDSN"),
	)

	var handler slog.Handler
	if c.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	} else {
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithColor(isTerminal(w)),
		)
	}

	return slog.New(handler), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
