// Package router builds the echo instance: middleware chain, error
// handler and route table.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/patient-api/internal/handler"
	"github.com/deppfellow/patient-api/internal/middleware"
	"github.com/deppfellow/patient-api/internal/server"
	"github.com/deppfellow/patient-api/internal/service"
)

func NewRouter(s *server.Server, h *handler.Handlers, services *service.Services) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.RateLimit.Limit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	var writeGuards []echo.MiddlewareFunc
	if services.Auth.Enabled {
		writeGuards = append(writeGuards, middlewares.Auth.RequireAuth)
	}
	registerPatientRoutes(router, h, writeGuards...)

	return router
}
