// Package handler is the HTTP layer: it binds and validates input, calls
// the services and shapes the responses.
package handler

import (
	"github.com/deppfellow/patient-api/internal/server"
	"github.com/deppfellow/patient-api/internal/service"
)

// Handlers groups every HTTP handler for the router.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Patient *PatientHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s, services.Patient),
		OpenAPI: NewOpenAPIHandler(s),
		Patient: NewPatientHandler(s, services.Patient),
	}
}
