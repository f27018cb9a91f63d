package handler

// Every error response has the same shape:
//
//	{"message": "Grid not found with id 3"}
//	{"message": "Validation failed", "errors": [{"field": "name", "message": "..."}]}
//
// so the console can always read .message and, for 400s, highlight fields
// from .errors.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/apperror"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
}

// MessageResponse is used where an operation has no entity to return.
type MessageResponse struct {
	Message string `json:"message"`
}

const internalErrorMessage = "Internal server error"

// base carries what every handler needs to respond.
type base struct {
	logger *zap.Logger
}

// writeJSON sets the headers and status before encoding the body; once the
// body starts, headers can no longer change.
func (b base) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeError maps a service error to its status code. Errors that are not
// an *apperror.AppError are logged and answered with a generic 500 so
// storage details never reach the client.
func (b base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		b.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		b.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: internalErrorMessage})
		return
	}

	status := statusFor(err)
	body := ErrorResponse{Message: appErr.Message}
	if status == http.StatusBadRequest {
		body.Errors = appErr.Errors
	}
	if status == http.StatusInternalServerError {
		b.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		body.Message = internalErrorMessage
	}
	b.writeJSON(w, status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst. A malformed body is a 400 on "body".
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}

// idParam parses the {id} route parameter. Ids that cannot exist are
// reported as not found, the same as ids that do not.
func idParam(r *http.Request, resource string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}
