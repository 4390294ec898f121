package service

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/deppfellow/patient-api/internal/errs"
	"github.com/deppfellow/patient-api/internal/lib/job"
	"github.com/deppfellow/patient-api/internal/model/patient"
	"github.com/deppfellow/patient-api/internal/repository"
	"github.com/deppfellow/patient-api/internal/validation"
)

// Messages returned to clients. Their wording, typos included, is part of
// the public API.
const (
	MsgPatientNotFound  = "Patient not found"
	MsgPatientExists    = "Patient Already Exist"
	MsgUpdateNotFound   = "Patient Record Does Not Exist"
	MsgDeleteNotFound   = "Record Does Not Exist"
	MsgUpdateConflict   = "Patient record was modified concurrently, retry the request"
	MsgInvalidSortField = "Invalid Field , Select from : ['height', 'weight', 'bmi']"
	MsgInvalidSortOrder = "Invalid Field , Select from : ['asc', 'desc']"
	MsgPatientCreated   = "Patient Created Sucessfully"
	MsgPatientUpdated   = "Data Updated Successfully"
	MsgPatientDeleted   = "Data Deleted Successfully"
)

const (
	codePatientExists    = "PATIENT_ALREADY_EXISTS"
	codeInvalidSortField = "INVALID_SORT_FIELD"
	codeInvalidSortOrder = "INVALID_SORT_ORDER"

	descendingSortOrder = "desc"
)

// DefaultSortOrder is used by callers when no order was requested.
const DefaultSortOrder = "asc"

// sortKeys maps the accepted sort_by values to the record field they read.
var sortKeys = map[string]func(patient.Record) float64{
	"height": func(r patient.Record) float64 { return r.Height },
	"weight": func(r patient.Record) float64 { return r.Weight },
	"bmi":    func(r patient.Record) float64 { return r.BMI },
}

// AlertEnqueuer schedules verdict alerts. *job.JobService implements it.
type AlertEnqueuer interface {
	EnqueueVerdictAlert(ctx context.Context, p job.VerdictAlertPayload) error
}

// PatientService applies the patient rules on top of a PatientStore.
//
// Every failure meant for the client is returned as *errs.HTTPError.
// Anything else is an internal error.
type PatientService struct {
	store     repository.PatientStore
	alerts    AlertEnqueuer
	recipient string
	logger    *zerolog.Logger
}

// NewPatientService returns a service over store. Verdict alerts are sent
// only when alerts is non-nil and recipient is set.
func NewPatientService(store repository.PatientStore, alerts AlertEnqueuer, recipient string, logger *zerolog.Logger) *PatientService {
	return &PatientService{
		store:     store,
		alerts:    alerts,
		recipient: recipient,
		logger:    logger,
	}
}

// List returns every stored record keyed by id.
func (s *PatientService) List(ctx context.Context) (map[string]patient.Record, error) {
	entries, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	records := make(map[string]patient.Record, len(entries))
	for _, e := range entries {
		records[e.ID] = e.Record
	}
	return records, nil
}

// Get returns the record stored under id.
func (s *PatientService) Get(ctx context.Context, id string) (*patient.Record, error) {
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errs.NewNotFoundError(MsgPatientNotFound, true, nil)
	}
	return rec, err
}

// Sort returns all records ordered by sortBy, in "asc" or "desc" order.
// Equal keys keep ascending id order in both directions.
func (s *PatientService) Sort(ctx context.Context, sortBy, order string) ([]patient.Record, error) {
	key, ok := sortKeys[sortBy]
	if !ok {
		code := codeInvalidSortField
		return nil, errs.NewBadRequestError(MsgInvalidSortField, true, &code, nil, nil)
	}

	if order != DefaultSortOrder && order != descendingSortOrder {
		code := codeInvalidSortOrder
		return nil, errs.NewBadRequestError(MsgInvalidSortOrder, true, &code, nil, nil)
	}

	entries, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	desc := order == descendingSortOrder
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := key(entries[i].Record), key(entries[j].Record)
		if desc {
			return a > b
		}
		return a < b
	})

	records := make([]patient.Record, len(entries))
	for i, e := range entries {
		records[i] = e.Record
	}
	return records, nil
}

// Create stores a new, already validated patient.
func (s *PatientService) Create(ctx context.Context, p patient.Patient) error {
	rec := p.Record()
	if err := s.store.Create(ctx, p.ID, rec); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			code := codePatientExists
			return errs.NewBadRequestError(MsgPatientExists, true, &code, nil, nil)
		}
		return err
	}

	s.alertIfNeeded(ctx, p.ID, rec)
	return nil
}

// Update merges u into the stored patient and re-validates the result
// before anything is written. An update with no fields set writes nothing.
func (s *PatientService) Update(ctx context.Context, id string, u patient.Update) error {
	if u.IsEmpty() {
		if _, err := s.store.Get(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errs.NewNotFoundError(MsgUpdateNotFound, true, nil)
			}
			return err
		}
		s.logger.Debug().Str("patient_id", id).Msg("empty update, nothing written")
		return nil
	}

	var saved patient.Record

	err := s.store.Update(ctx, id, func(current patient.Record) (patient.Record, error) {
		merged := u.ApplyTo(patient.FromRecord(id, current))
		if err := merged.Validate(); err != nil {
			return current, validation.ValidationFailure(err)
		}
		saved = merged.Record()
		return saved, nil
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errs.NewNotFoundError(MsgUpdateNotFound, true, nil)
	case errors.Is(err, repository.ErrConflict):
		return errs.NewConflictError(MsgUpdateConflict)
	case err != nil:
		return err
	}

	s.alertIfNeeded(ctx, id, saved)
	return nil
}

// Delete removes the record stored under id.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return errs.NewNotFoundError(MsgDeleteNotFound, true, nil)
	}
	return err
}

// Ping reports whether the store is reachable.
func (s *PatientService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// alertIfNeeded enqueues a verdict alert for anything but a Normal verdict.
// Failures are logged only; the write already succeeded.
func (s *PatientService) alertIfNeeded(ctx context.Context, id string, rec patient.Record) {
	if s.alerts == nil || s.recipient == "" || rec.Verdict == patient.VerdictNormal {
		return
	}

	err := s.alerts.EnqueueVerdictAlert(context.WithoutCancel(ctx), job.VerdictAlertPayload{
		To:        s.recipient,
		PatientID: id,
		Name:      rec.Name,
		BMI:       rec.BMI,
		Verdict:   rec.Verdict,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("patient_id", id).
			Str("verdict", rec.Verdict).
			Msg("failed to enqueue verdict alert")
	}
}
