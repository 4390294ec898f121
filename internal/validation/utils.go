// Package validation binds request data and turns validator failures into
// field errors the client can act on.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/patient-api/internal/errs"
)

// Validatable is implemented by request payload types that know how to
// validate themselves, usually by running validator.Struct on their tags.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a single failure that cannot be expressed as a
// struct tag.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

const validationFailed = "Validation failed"

// BindAndValidate binds path, query and body data into payload and then
// validates it. payload must be a pointer.
//
// A payload that cannot be decoded yields 400. One that decodes but breaks
// a rule yields 422 with one FieldError per broken rule.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(bindMessage(err), false, nil, nil, nil)
	}

	if err := payload.Validate(); err != nil {
		return ValidationFailure(err)
	}

	return nil
}

// ValidationFailure converts an error returned from Validate into a 422.
// Errors it does not recognise are returned unchanged.
func ValidationFailure(err error) error {
	fieldErrors, ok := ExtractFieldErrors(err)
	if !ok {
		return err
	}
	return errs.NewUnprocessableEntityError(validationFailed, fieldErrors)
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusBadRequest {
		if msg, ok := he.Message.(string); ok && msg != "" {
			return msg
		}
	}
	return "Invalid request payload"
}

// ExtractFieldErrors reports whether err is a validation failure, and if so
// returns its field errors.
func ExtractFieldErrors(err error) ([]errs.FieldError, bool) {
	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		fieldErrors := make([]errs.FieldError, 0, len(custom))
		for _, e := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: e.Field, Error: e.Message})
		}
		return fieldErrors, true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}

	fieldErrors := make([]errs.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: fieldName(fe),
			Error: fieldMessage(fe),
		})
	}
	return fieldErrors, true
}

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"

	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())

	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())

	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())

	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())

	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())

	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())

	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())

	case "email":
		return "must be a valid email address"

	case "finite_bmi":
		return "gives an out of range BMI"

	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s: %s:%s", fieldName(fe), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s: %s", fieldName(fe), fe.Tag())
	}
}
