package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/patient-api/internal/server"
)

// patientIDParams are the route parameters that name a patient.
// /view/:item_id reads one, /update and /delete write one.
var patientIDParams = []string{"item_id", "patient_id"}

// TracingMiddleware owns the New Relic middleware.
//
// It needs:
//   - server: for the storage driver recorded on every transaction
//   - nrApp: the New Relic application (nil when New Relic is disabled)
//
// Two layers are installed, in this order:
//  1. NewRelicMiddleware() starts the transaction
//  2. EnhanceTracing() decorates it with patient API attributes
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware starts a transaction per request and stores it on the
// request context, which is what makes newrelic.FromContext work further
// down the chain. Without an application it passes requests through.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing adds attributes to the current transaction.
//
// Before the handler:
//   - client ip and user agent
//   - request id, for joining traces with logs
//   - route pattern and storage driver
//   - patient.id when the route addresses a single patient
//
// After the handler:
//   - user.id when RequireAuth authenticated the caller
//   - response status
//   - the returned error, wrapped by nrpkgerrors for a stack trace
//
// It must run after NewRelicMiddleware. The error is still returned so
// the global error handler writes the response.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			txn.AddAttribute("http.real_ip", c.RealIP())
			txn.AddAttribute("http.user_agent", c.Request().UserAgent())
			txn.AddAttribute("http.route", c.Path())
			txn.AddAttribute("storage.driver", tm.server.Config.Storage.Driver)

			if requestID := GetRequestID(c); requestID != "" {
				txn.AddAttribute("request.id", requestID)
			}
			if patientID := PatientIDParam(c); patientID != "" {
				txn.AddAttribute("patient.id", patientID)
			}

			err := next(c)

			if userID := GetUserID(c); userID != "" {
				txn.AddAttribute("user.id", userID)
			}

			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}

			txn.AddAttribute("http.status_code", c.Response().Status)

			return err
		}
	}
}

// PatientIDParam returns the patient id addressed by the matched route,
// or "" on collection routes such as /view and /sort.
func PatientIDParam(c echo.Context) string {
	for _, name := range patientIDParams {
		if id := c.Param(name); id != "" {
			return id
		}
	}
	return ""
}
