package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/patient-api/internal/model/patient"
	"github.com/deppfellow/patient-api/internal/server"
	"github.com/deppfellow/patient-api/internal/service"
)

// PatientHandler serves the patient record routes. Writes answer with a
// bare JSON string.
type PatientHandler struct {
	Handler
	patientService *service.PatientService
}

func NewPatientHandler(s *server.Server, patientService *service.PatientService) *PatientHandler {
	return &PatientHandler{
		Handler:        NewHandler(s),
		patientService: patientService,
	}
}

func (h *PatientHandler) ViewPatients(c echo.Context, _ *ViewPatientsRequest) (map[string]patient.Record, error) {
	return h.patientService.List(c.Request().Context())
}

func (h *PatientHandler) GetPatient(c echo.Context, req *GetPatientRequest) (*patient.Record, error) {
	return h.patientService.Get(c.Request().Context(), req.ID)
}

// SortPatients defaults the order only when the parameter is absent.
// "order=" is passed through and rejected.
func (h *PatientHandler) SortPatients(c echo.Context, req *SortPatientsRequest) ([]patient.Record, error) {
	order := req.Order
	if !c.QueryParams().Has("order") {
		order = service.DefaultSortOrder
	}
	return h.patientService.Sort(c.Request().Context(), req.SortBy, order)
}

func (h *PatientHandler) CreatePatient(c echo.Context, req *CreatePatientRequest) (string, error) {
	if err := h.patientService.Create(c.Request().Context(), req.Patient); err != nil {
		return "", err
	}
	return service.MsgPatientCreated, nil
}

func (h *PatientHandler) UpdatePatient(c echo.Context, req *UpdatePatientRequest) (string, error) {
	if err := h.patientService.Update(c.Request().Context(), req.ID, req.Update); err != nil {
		return "", err
	}
	return service.MsgPatientUpdated, nil
}

func (h *PatientHandler) DeletePatient(c echo.Context, req *DeletePatientRequest) (string, error) {
	if err := h.patientService.Delete(c.Request().Context(), req.ID); err != nil {
		return "", err
	}
	return service.MsgPatientDeleted, nil
}
