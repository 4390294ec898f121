package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/patient-api/internal/handler"
	"github.com/deppfellow/patient-api/static"
)

// registerSystemRoutes wires the endpoints that sit outside the patient
// API: health, docs UI and the assets it loads.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.StaticFS("/static", static.FS)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
