package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/djmitche/mapper/pkg/cli/config"
	controller "github.com/djmitche/mapper/pkg/controller/http"
	"github.com/djmitche/mapper/pkg/infra/sqlite"
	"github.com/djmitche/mapper/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		dbCfg     config.Database
		authCfg   config.Auth
	)

	flags := append(serverCfg.Flags(), dbCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting mapper server",
				slog.String("addr", serverCfg.Addr),
				slog.String("db", dbCfg.DSN),
				slog.Any("auth", &authCfg),
			)

			// Open the revision store
			repo, err := sqlite.New(ctx, dbCfg.DSN)
			if err != nil {
				return goerr.Wrap(err, "failed to open database")
			}
			defer repo.Close()

			// Create use cases
			mapperUC := usecase.NewMapper(repo)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				mapperUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithAuthToken(authCfg.Token),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
