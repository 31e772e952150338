package config

import "github.com/urfave/cli/v3"

// Watch holds filesystem watcher configuration
type Watch struct {
	AssetsDir string
	Patterns  []string
}

// Flags returns CLI flags for watcher configuration
func (c *Watch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "assets-dir",
			Usage:       "Directory of the asset container; new files produce asset_uploaded events",
			Destination: &c.AssetsDir,
			Sources:     cli.EnvVars("SPOCK_ASSETS_DIR"),
		},
		&cli.StringSliceFlag{
			Name:        "pattern",
			Usage:       "Glob of files to react to, relative to the watched directory (repeatable)",
			Value:       []string{"**/*"},
			Destination: &c.Patterns,
			Sources:     cli.EnvVars("SPOCK_WATCH_PATTERNS"),
		},
	}
}
