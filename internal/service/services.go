// Package service contains the business logic.
//
// It sits between the handler and repository layers: handlers pass in
// validated data, services apply the rules and call the stores.
package service

import (
	"github.com/deppfellow/patient-api/internal/lib/job"
	"github.com/deppfellow/patient-api/internal/repository"
	"github.com/deppfellow/patient-api/internal/server"
)

type Services struct {
	Auth    *AuthService
	Patient *PatientService
	Job     *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService := NewAuthService(s)

	var (
		alerts    AlertEnqueuer
		recipient string
	)
	if s.Job != nil && s.Config.AlertsEnabled() {
		alerts = s.Job
		recipient = s.Config.Integration.AlertRecipient
	}

	return &Services{
		Job:     s.Job,
		Auth:    authService,
		Patient: NewPatientService(repos.Patients, alerts, recipient, s.Logger),
	}, nil
}
