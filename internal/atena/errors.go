package atena

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes the Atena API puts in the "code" field of error bodies.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUsernameInUse      = "USERNAME_IN_USE"
	CodeEmailInUse         = "EMAIL_IN_USE"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeValidationFailed   = "VALIDATION_FAILED"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameInUse      = errors.New("username in use")
	ErrEmailInUse         = errors.New("e-mail in use")
	ErrInvalidEmail       = errors.New("invalid e-mail")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
)

var codeErrors = map[string]error{
	CodeInvalidCredentials: ErrInvalidCredentials,
	CodeUsernameInUse:      ErrUsernameInUse,
	CodeEmailInUse:         ErrEmailInUse,
	CodeInvalidEmail:       ErrInvalidEmail,
	CodeValidationFailed:   ErrValidation,
}

// APIError is a non-2xx answer from the Atena API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("atena api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("atena api: %d: %s", e.Status, e.Message)
}

// Is matches the sentinel errors by code first and by HTTP status second.
func (e *APIError) Is(target error) bool {
	if sentinel, ok := codeErrors[e.Code]; ok {
		return sentinel == target
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusConflict:
		return target == ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return target == ErrValidation
	}
	return false
}

// errorBody is the error envelope of the API. Older endpoints fill "error",
// newer ones "message".
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}
