package api

import (
	"errors"
	"net/http"

	"github.com/okian/raffle/internal/adapters/export"
	service "github.com/okian/raffle/internal/app"
	"github.com/okian/raffle/internal/domain/validation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrMissingField),
		errors.Is(err, validation.ErrNotANumber),
		errors.Is(err, validation.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSubmissionPending),
		errors.Is(err, export.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders an engine error with its operator message.
func writeServiceError(w http.ResponseWriter, err error) {
	code := service.Code(err)
	tagErrorCode(w, code)
	writeJSON(w, statusFor(err), errorResponse{Code: code, Message: service.Message(err)})
}
