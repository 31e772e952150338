package config

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Spock holds command runner configuration. Values given by flags take
// precedence over the config file.
type Spock struct {
	ConfigFile   string
	Environment  string
	BaseDir      string
	ContentDir   string
	UsersDir     string
	Shell        string
	Environments []string
	Commands     []string
	ShellEscape  bool

	// shellEscapeSet records that --shell-escape was given explicitly, so the
	// flag overrides the config file in both directions
	shellEscapeSet bool
}

// Flags returns CLI flags for command runner configuration
func (c *Spock) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Config file (.toml, .yaml or .yml) with environments, commands and disks",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("SPOCK_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "env",
			Usage:       "Name of the current environment, matched against the whitelist",
			Required:    true,
			Destination: &c.Environment,
			Sources:     cli.EnvVars("SPOCK_ENV", "APP_ENV"),
		},
		&cli.StringFlag{
			Name:        "base-dir",
			Usage:       "Working directory of executed commands (default: current directory)",
			Destination: &c.BaseDir,
			Sources:     cli.EnvVars("SPOCK_BASE_DIR"),
		},
		&cli.StringFlag{
			Name:        "content-dir",
			Usage:       "Root directory of the content disk",
			Destination: &c.ContentDir,
			Sources:     cli.EnvVars("SPOCK_CONTENT_DIR"),
		},
		&cli.StringFlag{
			Name:        "users-dir",
			Usage:       "Root directory of the users disk",
			Destination: &c.UsersDir,
			Sources:     cli.EnvVars("SPOCK_USERS_DIR"),
		},
		&cli.StringFlag{
			Name:        "shell",
			Usage:       "Shell used to run commands",
			Destination: &c.Shell,
			Sources:     cli.EnvVars("SPOCK_SHELL"),
		},
		&cli.StringSliceFlag{
			Name:        "environment",
			Usage:       "Environment permitted to run commands (repeatable, overrides config file)",
			Destination: &c.Environments,
			Sources:     cli.EnvVars("SPOCK_ENVIRONMENTS"),
		},
		&cli.StringSliceFlag{
			Name:        "command",
			Usage:       "Command template (repeatable, overrides config file)",
			Destination: &c.Commands,
		},
		&cli.BoolFlag{
			Name:        "shell-escape",
			Usage:       "Quote substituted values for the shell",
			Destination: &c.ShellEscape,
			Sources:     cli.EnvVars("SPOCK_SHELL_ESCAPE"),
			Action: func(_ context.Context, _ *cli.Command, _ bool) error {
				c.shellEscapeSet = true
				return nil
			},
		},
	}
}

// Load merges the config file and flags into a model.Config
func (c *Spock) Load() (*model.Config, error) {
	cfg := &model.Config{}

	if c.ConfigFile != "" {
		loaded, err := LoadFile(c.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(c.Environments) > 0 {
		cfg.Environments = c.Environments
	}
	if len(c.Commands) > 0 {
		cfg.Commands = c.Commands
	}
	if c.Shell != "" {
		cfg.Shell = c.Shell
	}
	if c.shellEscapeSet || c.ShellEscape {
		cfg.ShellEscape = c.ShellEscape
	}

	if cfg.Disks == nil {
		cfg.Disks = map[string]string{}
	}
	if c.ContentDir != "" {
		cfg.Disks[model.DiskContent] = c.ContentDir
	}
	if c.UsersDir != "" {
		cfg.Disks[model.DiskUsers] = c.UsersDir
	}

	return cfg, nil
}

// WorkDir returns the absolute base directory for executed commands
func (c *Spock) WorkDir() (string, error) {
	dir := c.BaseDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", goerr.Wrap(err, "failed to get working directory")
		}
		dir = wd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve base directory", goerr.V("base_dir", dir))
	}
	return abs, nil
}

// LoadFile reads a TOML or YAML config file, chosen by extension. Unknown
// fields are rejected.
func LoadFile(path string) (*model.Config, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var cfg model.Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", path))
		}

	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, goerr.Wrap(err, "failed to parse YAML config", goerr.V("path", path))
		}

	default:
		return nil, goerr.New("unsupported config file extension", goerr.V("path", path), goerr.V("ext", ext))
	}

	return &cfg, nil
}
