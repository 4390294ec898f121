// Package server defines the Server container that composes the app's
// shared dependencies and owns their lifecycle.
//
// It owns:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool (postgres storage only)
//   - redis client (when a redis block is configured)
//   - background job service (asynq, when verdict alerts are enabled)
//   - the http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deppfellow/patient-api/internal/config"
	"github.com/deppfellow/patient-api/internal/database"
	"github.com/deppfellow/patient-api/internal/lib/job"
	loggerPkg "github.com/deppfellow/patient-api/internal/logger"
)

// Server is the application container. It is not the HTTP server itself;
// optional dependencies are nil when not configured.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database
	Redis         *redis.Client
	Job           *job.JobService

	httpServer *http.Server
}

// New constructs a Server and opens the connections the config asks for.
//
//   - postgres is opened only for the postgres storage driver and must answer a ping.
//   - redis is opened whenever configured. A failed ping is fatal only for
//     the redis storage driver; otherwise the service continues without it.
//   - the job worker starts when alerts are enabled and redis answered.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
	}

	if cfg.Storage.Driver == config.StorageDriverPostgres {
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		server.DB = db
	}

	if cfg.Redis != nil {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if loggerService.GetApplication() != nil {
			redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redisHealthy := true
		if err := redisClient.Ping(ctx).Err(); err != nil {
			if cfg.Storage.Driver == config.StorageDriverRedis {
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
			redisHealthy = false
		}
		server.Redis = redisClient

		if cfg.AlertsEnabled() && redisHealthy {
			jobService := job.NewJobService(logger, cfg)
			jobService.InitHandlers(cfg, logger)

			// asynq's Server.Start launches workers and returns.
			if err := jobService.Start(); err != nil {
				return nil, fmt.Errorf("failed to start job service: %w", err)
			}
			server.Job = jobService
		}
	}

	return server, nil
}

// SetupHTTPServer configures the internal net/http server around handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server until it is shut down. SetupHTTPServer must
// be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("storage", s.Config.Storage.Driver).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, then releases every dependency.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}

	return nil
}
