package api

import (
	"errors"
	"net/http"

	service "github.com/okian/apex/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrMissingName  = errors.New("missing nome")
	ErrNotAvailable = errors.New("not available")
)

// statusFor maps a board error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrDuplicateCheckIn):
		return http.StatusConflict, "duplicate_checkin"
	case errors.Is(err, service.ErrNameCollision):
		return http.StatusConflict, "name_collision"
	case errors.Is(err, service.ErrUnknownAction):
		return http.StatusBadRequest, "unknown_action"
	case errors.Is(err, service.ErrIndexOutOfRange):
		return http.StatusBadRequest, "index_out_of_range"
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, ErrMissingName),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotAvailable):
		return http.StatusNotFound, "not_available"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
