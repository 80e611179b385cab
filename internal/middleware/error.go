package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"robohub/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      http.StatusText(statusCode),
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	RespondWithJSON(w, statusCode, response)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, message string, fields []domain.FieldError) {
	details := make(map[string]interface{})
	details["validation_errors"] = fields

	RespondWithErrorDetails(w, http.StatusBadRequest, message, details)
}

// StatusFor maps an error of the storefront taxonomy to an HTTP status.
func StatusFor(err error) int {
	var apiErr *domain.APIError
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsAuth(err):
		return http.StatusUnauthorized
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 600:
		return apiErr.Status
	case domain.IsNetwork(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithDomainError writes err in the structured error shape. Every
// error is treated as transient: the caller may retry the action.
func RespondWithDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)

	var ve *domain.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		RespondWithValidationErrors(w, domain.Message(err), ve.Fields)
		return
	}

	message := domain.Message(err)
	if status == http.StatusInternalServerError {
		logger.Error("Unhandled error", zap.Error(err))
		message = "internal server error"
	} else {
		logger.Debug("Request failed", zap.Int("status", status), zap.Error(err))
	}
	RespondWithError(w, status, message)
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
