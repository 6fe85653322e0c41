// Package apperror holds the service's error taxonomy and the single place
// where errors are turned into HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels used to classify failures. Wrap them with %w or use the constructors below.
var (
	ErrSessionExpired    = errors.New("order session expired")
	ErrDatastore         = errors.New("datastore fault")
	ErrPaymentInProgress = errors.New("payment creation in progress")
)

// Error is an error carrying the HTTP status the handler chose for it.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error.
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithStatus attaches status to err, keeping err's own message.
func WithStatus(err error, status int) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return New(status, ae.Message, ae.Err)
	}
	return New(status, err.Error(), err)
}

// SessionExpired reports that a required order-session field is missing.
func SessionExpired(message string) *Error {
	return New(http.StatusForbidden, message, ErrSessionExpired)
}

// PaymentInProgress reports that another request holds the payment claim.
func PaymentInProgress() *Error {
	return New(http.StatusConflict, "Payment is being created, please retry shortly.", ErrPaymentInProgress)
}

// BadRequest reports a request the handler could not decode.
func BadRequest(message string, err error) *Error {
	return New(http.StatusBadRequest, message, err)
}

// DuplicateError is a unique-constraint violation on Field.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %v", e.Field, e.Err)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// Duplicate reports a conflict on field.
func Duplicate(field string, err error) error {
	return &DuplicateError{Field: field, Err: err}
}

// Datastore marks err as a backend fault (cache or table unavailable, throttled, ...).
func Datastore(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDatastore, err)
}
