package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// RequestIDHeader carries the correlation id in both directions.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the echo context key the id is stored under.
	RequestIDKey = "request_id"

	// maxRequestIDLength caps ids accepted from upstream. Longer ones are
	// replaced rather than truncated.
	maxRequestIDLength = 128
)

// RequestID gives every request a correlation id.
//
// Behavior:
//   - a well formed X-Request-ID from upstream (a proxy, another service)
//     is kept so traces line up across hops
//   - a missing, oversized or non-printable one is replaced by a UUID
//   - the id is stored on the echo context for EnhanceContext and
//     EnhanceTracing, and echoed back on the response
//
// Error bodies do not repeat the id; clients read it from the header.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if !validRequestID(requestID) {
				requestID = uuid.New().String()
			}

			c.Set(RequestIDKey, requestID)
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}

// validRequestID accepts non-empty printable ASCII up to maxRequestIDLength.
// Anything else would end up verbatim in logs and trace attributes.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns "" before RequestID has run.
func GetRequestID(c echo.Context) string {
	if requestID, ok := c.Get(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
