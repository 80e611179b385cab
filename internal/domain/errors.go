package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized  = errors.New("not signed in")
	ErrEmptyCart     = errors.New("your cart is empty")
	ErrStockExceeded = errors.New("quantity exceeds available stock")
)

// AuthError reports bad credentials or an expired or invalid token.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "authentication failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError reports a missing product, order or cart.
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	return e.Resource + " not found"
}

// FieldError names a single invalid form field by its JSON name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is detected on the client before any network call.
type ValidationError struct {
	Message string
	Fields  []FieldError
	Err     error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Fields) == 0 {
		return msg
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return msg + ": " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Has reports whether field was flagged.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// NetworkError reports a call that failed, timed out or returned an
// unusable response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return e.Op + ": network error"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is any other non-success answer from the backend, e.g. a 400
// "Email already registered".
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// NewValidationError builds a ValidationError for the given fields.
func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// IsAuth reports whether err is an AuthError or ErrUnauthorized.
func IsAuth(err error) bool {
	var e *AuthError
	return errors.As(err, &e) || errors.Is(err, ErrUnauthorized)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

// NetworkMessage is shown for any NetworkError.
const NetworkMessage = "Could not reach RoboHub. Please try again."

// Messenger is implemented by errors that carry their own notice text.
type Messenger interface {
	UserMessage() string
}

// Message returns the human-readable part of err suitable for a notice.
func Message(err error) string {
	var (
		custom  Messenger
		authErr *AuthError
		apiErr  *APIError
		valErr  *ValidationError
		nfErr   *NotFoundError
		netErr  *NetworkError
	)
	switch {
	case errors.As(err, &custom):
		return custom.UserMessage()
	case errors.As(err, &valErr) && valErr.Message != "":
		return valErr.Message
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.As(err, &nfErr):
		return nfErr.Error()
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.As(err, &netErr):
		return NetworkMessage
	case err != nil:
		return err.Error()
	}
	return ""
}
