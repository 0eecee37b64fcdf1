package apperrors

import (
	"errors"
	"fmt"
)

// ErrValidation indicates malformed input. Caller-side fix, never retried.
var ErrValidation = errors.New("validation error")

// ErrInsufficientBalance indicates a debit that would push the balance
// negative without overdraft permission. A business rejection, not a fault.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrClientNotFound indicates the referenced client has no record in the
// client registry.
var ErrClientNotFound = errors.New("client not found")

// ErrNotFound indicates a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrDuplicate indicates an attempt to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConcurrencyConflict indicates a lock or optimistic-version check failed.
// Safe to retry with backoff.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// ErrStorageFault indicates the durable store was unavailable or aborted the
// transaction for infrastructure reasons. Safe to retry, but callers must
// confirm via the idempotency key before assuming the entry was not applied.
var ErrStorageFault = errors.New("storage fault")

// ErrForbidden indicates the actor is not authorized for the operation.
var ErrForbidden = errors.New("forbidden")

// FieldError is a validation failure tied to a single input field.
// errors.Is(err, ErrValidation) holds for every FieldError.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

func (e *FieldError) Unwrap() error { return ErrValidation }

// Validationf builds a FieldError for the given field.
func Validationf(field, format string, args ...any) error {
	return &FieldError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
