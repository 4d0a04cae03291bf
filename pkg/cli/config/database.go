package config

import "github.com/urfave/cli/v3"

// Database holds storage configuration
type Database struct {
	DSN string
}

// Flags returns CLI flags for database configuration
func (c *Database) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Usage:       "SQLite database path (\":memory:\" for in-memory)",
			Value:       "mapper.db",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("MAPPER_DB"),
		},
	}
}
