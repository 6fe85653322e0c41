package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkout-session/internal/token"
)

// CodeTokenExpired lets clients branch on an expired token (e.g. trigger re-login).
const CodeTokenExpired = "TOKEN_EXPIRED"

// Envelope is the body of every error response.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Normalize maps err to an HTTP status and response envelope. Later rules
// take precedence over the status a handler attached.
func Normalize(err error) (int, Envelope) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	var ae *Error
	if errors.As(err, &ae) {
		if ae.Code != 0 {
			status = ae.Code
		}
		if ae.Message != "" {
			message = ae.Message
		}
	}

	var ve validatorv10.ValidationErrors
	var de *DuplicateError
	switch {
	case errors.Is(err, token.ErrExpired):
		status, message = http.StatusUnauthorized, "Authentication Failed"
	case errors.Is(err, token.ErrInvalid):
		status, message = http.StatusForbidden, "Authentication Failed"
	case errors.As(err, &ve):
		status, message = http.StatusBadRequest, fmt.Sprintf("These %s all fields are required.", fieldList(ve))
	case errors.As(err, &de):
		status, message = http.StatusBadRequest, fmt.Sprintf("Duplicate %s Entered", de.Field)
	case errors.Is(err, ErrDatastore):
		status, message = http.StatusInternalServerError, "Error On Server"
	}

	env := Envelope{Status: false, Message: message}
	if status == http.StatusUnauthorized {
		env.Code = CodeTokenExpired
	}
	return status, env
}

func fieldList(ve validatorv10.ValidationErrors) string {
	seen := make(map[string]bool, len(ve))
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		fields = append(fields, fe.Field())
	}
	return strings.Join(fields, ",")
}
