package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/djmitche/mapper/pkg/cli/config"
	"github.com/djmitche/mapper/pkg/infra/sqlite"
	"github.com/djmitche/mapper/pkg/usecase"
)

func cmdImport() *cli.Command {
	var (
		dbCfg      config.Database
		ignoreDups bool
		addMissing bool
	)

	flags := append(dbCfg.Flags(),
		&cli.BoolFlag{
			Name:        "ignore-dups",
			Usage:       "Skip mappings that already exist instead of failing",
			Destination: &ignoreDups,
		},
		&cli.BoolFlag{
			Name:        "create-project",
			Usage:       "Create the project if it does not exist",
			Destination: &addMissing,
		},
	)

	return &cli.Command{
		Name:      "import",
		Usage:     "Bulk-load a mapfile into the database",
		ArgsUsage: "<project> <mapfile>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if c.Args().Len() != 2 {
				return goerr.New("usage: mapper import <project> <mapfile>")
			}
			project := c.Args().Get(0)
			path := c.Args().Get(1)

			repo, err := sqlite.New(ctx, dbCfg.DSN)
			if err != nil {
				return goerr.Wrap(err, "failed to open database")
			}
			defer repo.Close()

			mapperUC := usecase.NewMapper(repo)

			if addMissing {
				if _, err := repo.GetProject(ctx, project); err != nil {
					if _, err := mapperUC.AddProject(ctx, project); err != nil {
						return err
					}
				}
			}

			f, err := os.Open(path)
			if err != nil {
				return goerr.Wrap(err, "failed to open mapfile", goerr.V("path", path))
			}
			defer f.Close()

			result, err := mapperUC.ImportMapfile(ctx, project, f, ignoreDups)
			if err != nil {
				return err
			}

			logger.Info("Import complete",
				"project", project,
				"batch_id", result.BatchID,
				"inserted", result.Inserted,
				"skipped", result.Skipped,
			)
			return nil
		},
	}
}
