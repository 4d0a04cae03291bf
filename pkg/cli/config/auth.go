package config

import "github.com/urfave/cli/v3"

// Auth holds write-endpoint authentication configuration
type Auth struct {
	Token string `masq:"secret"`
}

// Flags returns CLI flags for auth configuration
func (c *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "auth-token",
			Usage:       "Bearer token required on insert endpoints",
			Required:    true,
			Destination: &c.Token,
			Sources:     cli.EnvVars("MAPPER_AUTH_TOKEN"),
		},
	}
}
