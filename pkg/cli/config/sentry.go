package config

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting configuration
type Sentry struct {
	DSN string `masq:"secret"`
	Env string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for reporting command failures (optional)",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("SPOCK_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Destination: &c.Env,
			Sources:     cli.EnvVars("SPOCK_SENTRY_ENV"),
		},
	}
}

// Configure initializes the Sentry client. It returns false if no DSN is set.
func (c *Sentry) Configure() (bool, error) {
	if c.DSN == "" {
		return false, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Env,
		Release:     "spock@" + types.Version,
	}); err != nil {
		return false, goerr.Wrap(err, "failed to initialize Sentry")
	}

	return true, nil
}

// Flush waits for buffered Sentry events to be sent
func (c *Sentry) Flush() {
	if c.DSN != "" {
		sentry.Flush(2 * time.Second)
	}
}
