// Package patient holds the patient domain model.
//
// A Patient is what clients send. A Record is what gets stored and served
// back: the same fields without the id (the id is the key the record is
// stored under) plus the computed BMI and verdict.
package patient

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// Gender literals accepted by the model.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOthers = "others"
)

// Verdict labels derived from BMI. The casing is part of the wire format.
const (
	VerdictUnderweight = "underweight"
	VerdictNormal      = "Normal"
	VerdictOverweight  = "Overweight"
	VerdictObese       = "Obese"
)

// tagFiniteBMI is reported on height when weight / height² is not a finite
// number, e.g. a height of 1e-160.
const tagFiniteBMI = "finite_bmi"

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole package.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateBMI, Patient{})
	return v
}()

// validateBMI rejects measurements whose BMI cannot be stored or encoded.
// Non-positive values are left to the field tags.
func validateBMI(sl validator.StructLevel) {
	p := sl.Current().Interface().(Patient)
	if p.Height <= 0 || p.Weight <= 0 {
		return
	}
	if bmi := p.BMI(); math.IsInf(bmi, 0) || math.IsNaN(bmi) {
		sl.ReportError(p.Height, "Height", "Height", tagFiniteBMI, "")
	}
}

// Patient is a fully specified patient as accepted by the create route.
type Patient struct {
	ID     string  `json:"id" validate:"required"`
	Name   string  `json:"name" validate:"required"`
	City   string  `json:"city" validate:"required"`
	Age    int     `json:"age" validate:"gt=0,lt=120"`
	Gender string  `json:"gender" validate:"required,oneof=male female others"`
	Height float64 `json:"height" validate:"gt=0"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

// Validate checks the struct tags and returns validator.ValidationErrors
// on failure.
func (p *Patient) Validate() error {
	return validate.Struct(p)
}

// BMI is weight / height², rounded to two decimals.
func (p *Patient) BMI() float64 {
	return round2(p.Weight / (p.Height * p.Height))
}

// Verdict classifies the BMI.
func (p *Patient) Verdict() string {
	return VerdictFor(p.BMI())
}

// VerdictFor classifies an already computed BMI.
func VerdictFor(bmi float64) string {
	switch {
	case bmi < 18.5:
		return VerdictUnderweight
	case bmi < 25:
		return VerdictNormal
	case bmi < 30:
		return VerdictOverweight
	default:
		return VerdictObese
	}
}

// Record serializes the patient without its id and with computed fields.
func (p *Patient) Record() Record {
	return Record{
		Name:    p.Name,
		City:    p.City,
		Age:     p.Age,
		Gender:  p.Gender,
		Height:  p.Height,
		Weight:  p.Weight,
		BMI:     p.BMI(),
		Verdict: p.Verdict(),
	}
}

// FromRecord rebuilds the patient stored under id. Stored BMI and verdict
// are dropped; they are recomputed from height and weight on demand.
func FromRecord(id string, rec Record) Patient {
	return Patient{
		ID:     id,
		Name:   rec.Name,
		City:   rec.City,
		Age:    rec.Age,
		Gender: rec.Gender,
		Height: rec.Height,
		Weight: rec.Weight,
	}
}

// Record is the persisted and served form of a patient.
type Record struct {
	Name    string  `json:"name"`
	City    string  `json:"city"`
	Age     int     `json:"age"`
	Gender  string  `json:"gender"`
	Height  float64 `json:"height"`
	Weight  float64 `json:"weight"`
	BMI     float64 `json:"bmi"`
	Verdict string  `json:"verdict"`
}

// Entry pairs a record with the id it is stored under.
type Entry struct {
	ID     string
	Record Record
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
