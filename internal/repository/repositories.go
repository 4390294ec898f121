// Package repository handles every interaction with patient storage.
//
// PatientStore is the persistence contract the service layer relies on.
// Three implementations exist: a JSON document on disk, a postgres table
// and a redis hash. storage.driver picks one at startup.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/patient-api/internal/config"
	"github.com/deppfellow/patient-api/internal/model/patient"
	"github.com/deppfellow/patient-api/internal/server"
)

var (
	// ErrNotFound is returned when no record is stored under the id.
	ErrNotFound = errors.New("patient record not found")

	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("patient record already exists")

	// ErrConflict is returned by Update when concurrent writers kept
	// invalidating the read. Nothing was written and the call can be retried.
	ErrConflict = errors.New("patient record modified concurrently")
)

// UpdateFunc receives the current record and returns its replacement.
// Returning an error aborts the update and leaves the store untouched.
type UpdateFunc func(current patient.Record) (patient.Record, error)

// PatientStore persists records keyed by patient id.
type PatientStore interface {
	// All returns every record in ascending id order.
	All(ctx context.Context) ([]patient.Entry, error)
	Get(ctx context.Context, id string) (*patient.Record, error)
	Create(ctx context.Context, id string, rec patient.Record) error
	// Update applies fn atomically with respect to other store calls.
	Update(ctx context.Context, id string, fn UpdateFunc) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Repositories is the container for all repository instances.
type Repositories struct {
	Patients PatientStore
}

// NewRepositories builds the store selected by storage.driver using the
// connections already opened on s.
func NewRepositories(s *server.Server) (*Repositories, error) {
	var store PatientStore

	switch s.Config.Storage.Driver {
	case config.StorageDriverFile:
		store = NewFileStore(s.Config.Storage.FilePath)

	case config.StorageDriverPostgres:
		if s.DB == nil {
			return nil, fmt.Errorf("storage driver %q needs a database connection", s.Config.Storage.Driver)
		}
		store = NewPostgresStore(s.DB.Pool)

	case config.StorageDriverRedis:
		if s.Redis == nil {
			return nil, fmt.Errorf("storage driver %q needs a redis connection", s.Config.Storage.Driver)
		}
		store = NewRedisStore(s.Redis, s.Config.Storage.RedisKey)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.Config.Storage.Driver)
	}

	s.Logger.Info().Str("driver", s.Config.Storage.Driver).Msg("patient store ready")

	return &Repositories{Patients: store}, nil
}
