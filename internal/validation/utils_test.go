package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/patient-api/internal/errs"
	"github.com/deppfellow/patient-api/internal/model/patient"
)

type createPayload struct {
	patient.Patient
}

func (p *createPayload) Validate() error {
	return p.Patient.Validate()
}

type customPayload struct{}

func (customPayload) Validate() error {
	return CustomValidationErrors{{Field: "sort_by", Message: "is unknown"}}
}

func newJSONContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/create", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr
}

func TestBindAndValidate_ok(t *testing.T) {
	c := newJSONContext(`{"id":"P001","name":"Ravi","city":"Pune","age":30,"gender":"male","height":1.8,"weight":81}`)

	var payload createPayload
	require.NoError(t, BindAndValidate(c, &payload))
	assert.Equal(t, "P001", payload.ID)
	assert.Equal(t, 81.0, payload.Weight)
}

func TestBindAndValidate_malformedBodyIs400(t *testing.T) {
	c := newJSONContext(`{"id":`)

	var payload createPayload
	httpErr := asHTTPError(t, BindAndValidate(c, &payload))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.NotEmpty(t, httpErr.Message)
}

func TestBindAndValidate_wrongTypeIs400(t *testing.T) {
	c := newJSONContext(`{"id":"P001","name":"Ravi","city":"Pune","age":"thirty","gender":"male","height":1.8,"weight":81}`)

	var payload createPayload
	httpErr := asHTTPError(t, BindAndValidate(c, &payload))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestBindAndValidate_ruleFailureIs422(t *testing.T) {
	c := newJSONContext(`{"id":"P001","name":"Ravi","city":"Pune","age":150,"gender":"robot","height":0,"weight":81}`)

	var payload createPayload
	httpErr := asHTTPError(t, BindAndValidate(c, &payload))
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
	assert.Equal(t, "UNPROCESSABLE_ENTITY", httpErr.Code)
	assert.Equal(t, "Validation failed", httpErr.Message)

	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "age", Error: "must be less than 120"},
		{Field: "gender", Error: "must be one of: male female others"},
		{Field: "height", Error: "must be greater than 0"},
	}, httpErr.Errors)
}

func TestExtractFieldErrors(t *testing.T) {
	t.Run("custom errors", func(t *testing.T) {
		fieldErrors, ok := ExtractFieldErrors(customPayload{}.Validate())
		require.True(t, ok)
		assert.Equal(t, []errs.FieldError{{Field: "sort_by", Error: "is unknown"}}, fieldErrors)
	})

	t.Run("required", func(t *testing.T) {
		p := patient.Patient{Age: 30, Gender: "male", Height: 1, Weight: 1}
		fieldErrors, ok := ExtractFieldErrors(p.Validate())
		require.True(t, ok)
		assert.ElementsMatch(t, []errs.FieldError{
			{Field: "id", Error: "is required"},
			{Field: "name", Error: "is required"},
			{Field: "city", Error: "is required"},
		}, fieldErrors)
	})

	t.Run("unrelated error", func(t *testing.T) {
		_, ok := ExtractFieldErrors(errors.New("disk full"))
		assert.False(t, ok)
	})
}

func TestValidationFailure_passesThroughUnknownErrors(t *testing.T) {
	cause := errors.New("disk full")
	assert.Same(t, cause, ValidationFailure(cause))
}
