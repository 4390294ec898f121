package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/deppfellow/patient-api/internal/model/patient"
)

// validate reports fields by the name the client used for them.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "param", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}()

// ViewPatientsRequest takes no input.
type ViewPatientsRequest struct{}

func (r *ViewPatientsRequest) Validate() error {
	return nil
}

type GetPatientRequest struct {
	ID string `param:"item_id" json:"-" validate:"required"`
}

func (r *GetPatientRequest) Validate() error {
	return validate.Struct(r)
}

// SortPatientsRequest leaves the allowed values to the service so that
// unknown ones get the dedicated 400 messages. Order is empty both when
// absent and when sent blank; the handler tells the two apart.
type SortPatientsRequest struct {
	SortBy string `query:"sort_by" json:"-" validate:"required"`
	Order  string `query:"order" json:"-"`
}

func (r *SortPatientsRequest) Validate() error {
	return validate.Struct(r)
}

type CreatePatientRequest struct {
	patient.Patient
}

func (r *CreatePatientRequest) Validate() error {
	return r.Patient.Validate()
}

type UpdatePatientRequest struct {
	ID string `param:"patient_id" json:"-" validate:"required"`
	patient.Update
}

// Validate covers the embedded Update's tags as well.
func (r *UpdatePatientRequest) Validate() error {
	return validate.Struct(r)
}

type DeletePatientRequest struct {
	ID string `param:"patient_id" json:"-" validate:"required"`
}

func (r *DeletePatientRequest) Validate() error {
	return validate.Struct(r)
}
