package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/patient-api/internal/config"
	"github.com/deppfellow/patient-api/internal/database"
	"github.com/deppfellow/patient-api/internal/handler"
	"github.com/deppfellow/patient-api/internal/lib/utils"
	"github.com/deppfellow/patient-api/internal/logger"
	"github.com/deppfellow/patient-api/internal/repository"
	"github.com/deppfellow/patient-api/internal/router"
	"github.com/deppfellow/patient-api/internal/server"
	"github.com/deppfellow/patient-api/internal/service"
)

const shutdownTimeout = 30 * time.Second

var (
	skipMigrate   bool
	migrateTarget int32
)

var rootCmd = &cobra.Command{
	Use:   "patient-api",
	Short: "Patient records HTTP API",
	Long: `Serves patient records with computed BMI and verdict.

Configuration comes from PATIENTS_* environment variables (and .env).
Run without a subcommand to start the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the embedded postgres migrations",
	RunE:  runMigrate,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every stored patient record as JSON",
	RunE:  runDump,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply postgres migrations before serving")
	}

	migrateCmd.Flags().Int32Var(&migrateTarget, "to", database.LatestVersion,
		"schema version to migrate to; 0 drops the patients table, -1 means latest")

	rootCmd.AddCommand(serveCmd, migrateCmd, dumpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads config and builds the logger every subcommand needs.
func bootstrap() (*config.Config, *logger.LoggerService, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Logger{}, fmt.Errorf("failed to load config: %w", err)
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	if err != nil {
		return nil, nil, zerolog.Logger{}, fmt.Errorf("failed to initialize New Relic: %w", err)
	}

	return cfg, loggerService, logger.NewLoggerWithService(cfg.Observability, loggerService), nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, loggerService, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer loggerService.Shutdown()

	if err := database.MigrateTo(cmd.Context(), &log, cfg, migrateTarget); err != nil {
		log.Error().Err(err).Msg("failed to migrate database")
		return err
	}
	return nil
}

func runDump(cmd *cobra.Command, _ []string) error {
	cfg, loggerService, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer loggerService.Shutdown()

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		return err
	}
	defer srv.Shutdown(context.Background())

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		return err
	}

	entries, err := repos.Patients.All(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read patients: %w", err)
	}

	records := make(map[string]any, len(entries))
	for _, e := range entries {
		records[e.ID] = e.Record
	}
	return utils.PrintJSON(cmd.OutOrStdout(), records)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, loggerService, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer loggerService.Shutdown()

	if cfg.Storage.Driver == config.StorageDriverPostgres && !skipMigrate {
		if err := database.Migrate(cmd.Context(), &log, cfg); err != nil {
			log.Error().Err(err).Msg("failed to migrate database")
			return err
		}
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize repositories")
		return err
	}

	services, err := service.NewService(srv, repos)
	if err != nil {
		log.Error().Err(err).Msg("could not create services")
		return err
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers, services)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
