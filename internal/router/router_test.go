package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/patient-api/internal/config"
	"github.com/deppfellow/patient-api/internal/errs"
	"github.com/deppfellow/patient-api/internal/handler"
	"github.com/deppfellow/patient-api/internal/logger"
	"github.com/deppfellow/patient-api/internal/model/patient"
	"github.com/deppfellow/patient-api/internal/repository"
	"github.com/deppfellow/patient-api/internal/server"
	"github.com/deppfellow/patient-api/internal/service"
)

const seedDocument = `{
	"P001": {"name": "Ananya Verma", "city": "Guwahati", "age": 28, "gender": "female", "height": 1.65, "weight": 90.0, "bmi": 33.06, "verdict": "Obese"},
	"P002": {"name": "Ravi Mehta", "city": "Mumbai", "age": 35, "gender": "male", "height": 1.75, "weight": 85, "bmi": 27.76, "verdict": "Overweight"},
	"P003": {"name": "Sneha Kulkarni", "city": "Pune", "age": 22, "gender": "female", "height": 1.6, "weight": 45, "bmi": 17.58, "verdict": "underweight"}
}`

type testAPI struct {
	router *echo.Echo
	path   string
}

func newTestAPI(t *testing.T, mutate func(cfg *config.Config)) *testAPI {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(seedDocument), 0o644))

	cfg := config.DefaultConfig()
	cfg.Storage.FilePath = path
	if mutate != nil {
		mutate(cfg)
	}

	log := zerolog.New(io.Discard)
	srv := &server.Server{
		Config:        cfg,
		Logger:        &log,
		LoggerService: &logger.LoggerService{},
	}

	repos, err := repository.NewRepositories(srv)
	require.NoError(t, err)

	services, err := service.NewService(srv, repos)
	require.NoError(t, err)

	return &testAPI{
		router: NewRouter(srv, handler.NewHandlers(srv, services), services),
		path:   path,
	}
}

func (a *testAPI) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()

	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeString(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestView(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/view", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var records map[string]patient.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "Ravi Mehta", records["P002"].Name)
}

func TestViewOne(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/view/P001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"name":"Ananya Verma","city":"Guwahati","age":28,"gender":"female","height":1.65,"weight":90,"bmi":33.06,"verdict":"Obese"}`,
		rec.Body.String())

	rec = api.do(t, http.MethodGet, "/view/P999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Patient not found", body.Message)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestSort(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/sort?sort_by=bmi&order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []patient.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, []float64{33.06, 27.76, 17.58}, []float64{records[0].BMI, records[1].BMI, records[2].BMI})

	rec = api.do(t, http.MethodGet, "/sort?sort_by=height", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Equal(t, "Sneha Kulkarni", records[0].Name)
}

func TestSort_errors(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name    string
		target  string
		status  int
		message string
	}{
		{"missing sort_by", "/sort", http.StatusUnprocessableEntity, "Validation failed"},
		{"unknown field", "/sort?sort_by=age", http.StatusBadRequest, "Invalid Field , Select from : ['height', 'weight', 'bmi']"},
		{"unknown order", "/sort?sort_by=bmi&order=up", http.StatusBadRequest, "Invalid Field , Select from : ['asc', 'desc']"},
		{"blank order", "/sort?sort_by=bmi&order=", http.StatusBadRequest, "Invalid Field , Select from : ['asc', 'desc']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, tt.target, "")
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec).Message)
		})
	}

	rec := api.do(t, http.MethodGet, "/sort", "")
	assert.Equal(t, []errs.FieldError{{Field: "sort_by", Error: "is required"}}, decodeError(t, rec).Errors)
}

func TestCreate(t *testing.T) {
	api := newTestAPI(t, nil)

	body := `{"id":"P004","name":"Kabir","city":"Delhi","age":41,"gender":"male","height":1.8,"weight":70}`
	rec := api.do(t, http.MethodPost, "/create", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Patient Created Sucessfully", decodeString(t, rec))

	rec = api.do(t, http.MethodGet, "/view/P004", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"name":"Kabir","city":"Delhi","age":41,"gender":"male","height":1.8,"weight":70,"bmi":21.6,"verdict":"Normal"}`,
		rec.Body.String())

	// The id stays the key and never enters the stored record.
	raw, err := os.ReadFile(api.path)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.NotContains(t, doc["P004"], "id")

	rec = api.do(t, http.MethodPost, "/create", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Patient Already Exist", decodeError(t, rec).Message)
}

func TestCreate_invalidBodies(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/create", `{"id":"P005","name":"Kabir","city":"Delhi","age":0,"gender":"robot","height":1.8,"weight":70}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "UNPROCESSABLE_ENTITY", body.Code)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "age", Error: "must be greater than 0"},
		{Field: "gender", Error: "must be one of: male female others"},
	}, body.Errors)

	rec = api.do(t, http.MethodPost, "/create", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// weight / height² overflows to +Inf.
	rec = api.do(t, http.MethodPost, "/create", `{"id":"P006","name":"Kabir","city":"Delhi","age":41,"gender":"male","height":1e-160,"weight":80}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []errs.FieldError{{Field: "height", Error: "gives an out of range BMI"}}, decodeError(t, rec).Errors)

	rec = api.do(t, http.MethodGet, "/view/P006", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdate_absentFieldsLeaveRecordUnchanged(t *testing.T) {
	api := newTestAPI(t, nil)

	before, err := os.ReadFile(api.path)
	require.NoError(t, err)

	for _, body := range []string{`{}`, `{"age":null}`, `{"name":null,"height":null}`} {
		t.Run(body, func(t *testing.T) {
			rec := api.do(t, http.MethodPut, "/update/P001", body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Data Updated Successfully", decodeString(t, rec))

			after, err := os.ReadFile(api.path)
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
		})
	}

	rec := api.do(t, http.MethodPut, "/update/P999", `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Patient Record Does Not Exist", decodeError(t, rec).Message)
}

func TestUpdate(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPut, "/update/P001", `{"weight":60,"city":"Shillong"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Data Updated Successfully", decodeString(t, rec))

	rec = api.do(t, http.MethodGet, "/view/P001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"name":"Ananya Verma","city":"Shillong","age":28,"gender":"female","height":1.65,"weight":60,"bmi":22.04,"verdict":"Normal"}`,
		rec.Body.String())

	rec = api.do(t, http.MethodPut, "/update/P999", `{"city":"Shillong"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Patient Record Does Not Exist", decodeError(t, rec).Message)

	rec = api.do(t, http.MethodPut, "/update/P001", `{"height":-1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []errs.FieldError{{Field: "height", Error: "must be greater than 0"}}, decodeError(t, rec).Errors)

	rec = api.do(t, http.MethodPut, "/update/P001", `{"gender":"robot"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPut, "/update/P001", `{"height":1e-160}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []errs.FieldError{{Field: "height", Error: "gives an out of range BMI"}}, decodeError(t, rec).Errors)
}

func TestDelete(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodDelete, "/delete/P002", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Data Deleted Successfully", decodeString(t, rec))

	rec = api.do(t, http.MethodDelete, "/delete/P002", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Record Does Not Exist", decodeError(t, rec).Message)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeError(t, rec).Message)
}

func TestStatus(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body["checks"], "storage")

	require.NoError(t, os.WriteFile(api.path, []byte("{broken"), 0o644))
	rec = api.do(t, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDocs(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")

	rec = api.do(t, http.MethodGet, "/static/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	for _, path := range []string{"/view", "/view/{item_id}", "/sort", "/create", "/update/{patient_id}", "/delete/{patient_id}"} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = 1
		cfg.Server.RateBurst = 2
	})

	for range 2 {
		require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/view", "").Code)
	}

	rec := api.do(t, http.MethodGet, "/view", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeError(t, rec).Code)

	// Health checks are never throttled.
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/status", "").Code)
}

func TestAuthGuardsWrites(t *testing.T) {
	api := newTestAPI(t, func(cfg *config.Config) {
		cfg.Auth = &config.AuthConfig{SecretKey: "sk_test_dummy"}
	})

	rec := api.do(t, http.MethodDelete, "/delete/P001", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)

	// Reads stay public.
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/view/P001", "").Code)
}
