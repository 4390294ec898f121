package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/patient-api/internal/config"
	"github.com/deppfellow/patient-api/internal/middleware"
	"github.com/deppfellow/patient-api/internal/server"
	"github.com/deppfellow/patient-api/internal/service"
)

// HealthHandler serves /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
	patientService *service.PatientService
}

func NewHealthHandler(s *server.Server, patientService *service.PatientService) *HealthHandler {
	return &HealthHandler{
		Handler:        NewHandler(s),
		patientService: patientService,
	}
}

type dependencyCheck struct {
	name string
	// critical checks turn the whole report unhealthy when they fail.
	critical bool
	ping     func(ctx context.Context) error
}

// CheckHealth pings the patient store, and postgres and redis when they
// are connected, each bounded by health_checks.timeout. It answers 200
// when every critical check passes and 503 otherwise. Redis only counts
// as critical when it is the store.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	cfg := h.server.Config
	obs := cfg.Observability

	var deps []dependencyCheck
	if obs.CheckEnabled("storage") {
		deps = append(deps, dependencyCheck{name: "storage", critical: true, ping: h.patientService.Ping})
	}
	if h.server.DB != nil && obs.CheckEnabled("database") {
		deps = append(deps, dependencyCheck{name: "database", critical: true, ping: h.server.DB.Pool.Ping})
	}
	if h.server.Redis != nil && obs.CheckEnabled("redis") {
		deps = append(deps, dependencyCheck{
			name:     "redis",
			critical: cfg.Storage.Driver == config.StorageDriverRedis,
			ping: func(ctx context.Context) error {
				return h.server.Redis.Ping(ctx).Err()
			},
		})
	}

	checks := make(map[string]interface{}, len(deps))
	isHealthy := true

	for _, dep := range deps {
		ctx, cancel := context.WithTimeout(c.Request().Context(), obs.HealthChecks.Timeout)
		depStart := time.Now()
		err := dep.ping(ctx)
		elapsed := time.Since(depStart)
		cancel()

		if err != nil {
			checks[dep.name] = map[string]interface{}{
				"status":        "unhealthy",
				"response_time": elapsed.String(),
				"error":         err.Error(),
			}
			if dep.critical {
				isHealthy = false
			}

			logger.Error().
				Err(err).
				Str("check", dep.name).
				Dur("response_time", elapsed).
				Msg("health check failed")

			h.recordHealthCheckError(map[string]interface{}{
				"check_type":       dep.name,
				"operation":        "health_check",
				"error_type":       dep.name + "_unhealthy",
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
			continue
		}

		checks[dep.name] = map[string]interface{}{
			"status":        "healthy",
			"response_time": elapsed.String(),
		}

		logger.Debug().
			Str("check", dep.name).
			Dur("response_time", elapsed).
			Msg("health check passed")
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": cfg.Primary.Env,
		"storage":     cfg.Storage.Driver,
		"checks":      checks,
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordHealthCheckError(map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) recordHealthCheckError(attrs map[string]interface{}) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attrs)
	}
}
