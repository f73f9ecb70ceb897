package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grigden22/temnet-parser/internal/config"
	"github.com/grigden22/temnet-parser/internal/database"
	"github.com/grigden22/temnet-parser/internal/security"
	"github.com/grigden22/temnet-parser/internal/server"
	"github.com/grigden22/temnet-parser/internal/services"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the 'serve' subcommand that runs the HTTP server.
// Usage: temnet-parser serve [--port 8080] [--migrate]
func NewServeCommand() *cobra.Command {
	var port int
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the archive search HTTP server",
		Long: `Connect to PostgreSQL and serve the archive search API and web page.

The server stops gracefully on SIGINT or SIGTERM, letting in-flight requests
finish before the connection pool is closed.

Example:
  temnet-parser serve
  temnet-parser serve --port 9090 --migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCommand(cmd.Context(), port, migrateFirst)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply pending migrations before serving")

	return cmd
}

func runServeCommand(ctx context.Context, port int, migrateFirst bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger := security.NewLogger()

	if migrateFirst {
		if err := database.RunMigrations(cfg.Database.URL); err != nil {
			return err
		}
	}

	if err := database.Connect(ctx, &cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	searchLimiter := security.NewRateLimiter(cfg.Limits.SearchRateLimit, cfg.Limits.RefillInterval())
	defer searchLimiter.Stop()

	app, err := server.New(server.Options{
		Service:          services.NewArchiveService(cfg.Limits.QueryTimeout),
		Logger:           logger,
		Limits:           cfg.Limits,
		Location:         cfg.Location,
		SearchLimiter:    searchLimiter,
		Ping:             database.IsConnected,
		CORSAllowOrigins: cfg.Server.CORSAllowOrigins,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		logger.Infof("server listening on %s (timezone %s)", cfg.Server.Addr(), cfg.Location)
		listenErr <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Critical("server stopped unexpectedly", err)
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining connections")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
