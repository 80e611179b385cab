package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"robohub/internal/domain"
	"robohub/internal/validation"
)

// maxBodyBytes bounds action request bodies.
const maxBodyBytes = 1 << 20

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		return &domain.ValidationError{Message: msg, Err: err}
	}
	return validation.Struct(v, "validation failed")
}
