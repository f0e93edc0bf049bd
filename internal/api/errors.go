package api

import (
	"errors"
	"net/http"

	"github.com/tuner-control/tcc/internal/adapter"
	"github.com/tuner-control/tcc/internal/command"
)

// APIError represents an API-layer error with its HTTP status code.
type APIError struct {
	Code       string
	Message    string
	Details    interface{}
	StatusCode int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// API error codes for transport/security/lookup conditions
var (
	ErrBadRequest        = errors.New("BAD_REQUEST")
	ErrUnauthorizedError = errors.New("UNAUTHORIZED")
	ErrForbiddenError    = errors.New("FORBIDDEN")
	ErrNotFoundError     = errors.New("NOT_FOUND")
)

// WriteMappedError converts err into the envelope and writes it.
func WriteMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	WriteError(w, status, code, message, details)
}

// mapError maps orchestrator and adapter errors to HTTP status, code, and
// message.
func mapError(err error) (int, string, string, interface{}) {
	if err == nil {
		return http.StatusOK, "", "", nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Code, apiErr.Message, apiErr.Details
	}

	var driverErr *adapter.DriverError
	if errors.As(err, &driverErr) {
		status, code := adapterStatus(driverErr.Code)
		return status, code, adapterMessage(driverErr.Code), driverErr.Details
	}

	switch {
	case errors.Is(err, adapter.ErrInvalidRange):
		return http.StatusBadRequest, "INVALID_RANGE", adapterMessage(err), nil
	case errors.Is(err, adapter.ErrBusy):
		return http.StatusServiceUnavailable, "BUSY", adapterMessage(err), nil
	case errors.Is(err, adapter.ErrUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE", adapterMessage(err), nil
	case errors.Is(err, adapter.ErrInternal):
		return http.StatusInternalServerError, "INTERNAL", adapterMessage(err), nil
	case errors.Is(err, command.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Resource not found", nil
	case errors.Is(err, command.ErrUnknownStation):
		return http.StatusNotFound, "NOT_FOUND", "Station not found", nil
	case errors.Is(err, command.ErrInvalidParameter):
		return http.StatusBadRequest, "BAD_REQUEST", "Malformed or missing required parameter", nil
	case errors.Is(err, ErrUnauthorizedError):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil
	case errors.Is(err, ErrForbiddenError):
		return http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", nil
	case errors.Is(err, ErrNotFoundError):
		return http.StatusNotFound, "NOT_FOUND", "Resource not found", nil
	}

	return http.StatusInternalServerError, "INTERNAL", "Internal server error", map[string]interface{}{
		"original": err.Error(),
	}
}

func adapterStatus(code error) (int, string) {
	switch {
	case errors.Is(code, adapter.ErrInvalidRange):
		return http.StatusBadRequest, "INVALID_RANGE"
	case errors.Is(code, adapter.ErrBusy):
		return http.StatusServiceUnavailable, "BUSY"
	case errors.Is(code, adapter.ErrUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func adapterMessage(code error) string {
	switch {
	case errors.Is(code, adapter.ErrInvalidRange):
		return "Parameter value is outside the allowed range"
	case errors.Is(code, adapter.ErrBusy):
		return "Service is busy, please retry with backoff"
	case errors.Is(code, adapter.ErrUnavailable):
		return "Service is temporarily unavailable"
	default:
		return "Internal server error"
	}
}
