package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/portalops/ledger-backend/internal/apperrors"
)

type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details any) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// WriteDomainError maps the service error taxonomy onto HTTP statuses.
// Retryable faults get 409/503 so callers can back off; terminal ones get
// 4xx and must not be retried unchanged.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		WriteError(w, http.StatusUnprocessableEntity, "insufficient_balance", "insufficient balance", nil)
	case errors.Is(err, apperrors.ErrClientNotFound):
		WriteError(w, http.StatusNotFound, "client_not_found", "client not found", nil)
	case errors.Is(err, apperrors.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, apperrors.ErrDuplicate):
		WriteError(w, http.StatusConflict, "duplicate", "resource already exists", nil)
	case errors.Is(err, apperrors.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "forbidden", nil)
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		WriteError(w, http.StatusConflict, "concurrency_conflict", "conflicting update, retry with backoff", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// client went away or ran out of time; not a storage problem
		WriteError(w, http.StatusRequestTimeout, "request_timeout", "request canceled or timed out", nil)
	default:
		WriteError(w, http.StatusServiceUnavailable, "storage_fault", "temporary storage failure", nil)
	}
}
