package config

import "github.com/urfave/cli/v3"

// Server holds webhook server configuration
type Server struct {
	Addr          string
	WebhookSecret string `masq:"secret"`
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("SPOCK_ADDR"),
		},
		&cli.StringFlag{
			Name:        "webhook-secret",
			Usage:       "Shared secret for X-Spock-Signature-256 verification (empty disables verification)",
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("SPOCK_WEBHOOK_SECRET"),
		},
	}
}
