package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/logx"
)

// statusFor maps the storage and lifecycle error kinds onto HTTP codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrDuplicateShift):
		return http.StatusConflict, "shift already exists for this date"
	case errors.Is(err, apperr.ErrConstraintViolation):
		return http.StatusConflict, "constraint violation"
	case errors.Is(err, apperr.ErrConcurrentModification):
		return http.StatusConflict, "concurrent modification, retry"
	case errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusBadRequest, "invalid status transition"
	case errors.Is(err, apperr.ErrInvalid):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, apperr.ErrBackendUnavailable), errors.Is(err, apperr.ErrConnectionUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeAppError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", logx.String("req_id", reqID(r.Context())), logx.Err(err))
	}
	writeError(logger, w, r, status, msg)
}
