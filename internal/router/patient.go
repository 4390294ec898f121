package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/patient-api/internal/handler"
)

// registerPatientRoutes wires the record routes. writeGuards run in front
// of the routes that change data.
func registerPatientRoutes(r *echo.Echo, h *handler.Handlers, writeGuards ...echo.MiddlewareFunc) {
	p := h.Patient

	r.GET("/view", handler.Handle(p.Handler, p.ViewPatients, http.StatusOK, &handler.ViewPatientsRequest{}))
	r.GET("/view/:item_id", handler.Handle(p.Handler, p.GetPatient, http.StatusOK, &handler.GetPatientRequest{}))
	r.GET("/sort", handler.Handle(p.Handler, p.SortPatients, http.StatusOK, &handler.SortPatientsRequest{}))

	r.POST("/create", handler.Handle(p.Handler, p.CreatePatient, http.StatusOK, &handler.CreatePatientRequest{}), writeGuards...)
	r.PUT("/update/:patient_id", handler.Handle(p.Handler, p.UpdatePatient, http.StatusOK, &handler.UpdatePatientRequest{}), writeGuards...)
	r.DELETE("/delete/:patient_id", handler.Handle(p.Handler, p.DeletePatient, http.StatusOK, &handler.DeletePatientRequest{}), writeGuards...)
}
