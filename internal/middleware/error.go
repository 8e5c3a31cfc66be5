package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrorCode classifies a failed request. Clients branch on the code; the
// message is meant for people.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION_FAILED"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	CodePlanUnavailable   ErrorCode = "PLAN_UNAVAILABLE"
	CodeUnauthenticated   ErrorCode = "UNAUTHENTICATED"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeRateLimited       ErrorCode = "RATE_LIMITED"
	CodeUnexpected        ErrorCode = "UNEXPECTED"
)

// Conflicts answer 400 like validation failures; the code tells them apart.
var errorStatus = map[ErrorCode]int{
	CodeValidation:        http.StatusBadRequest,
	CodeConflict:          http.StatusBadRequest,
	CodeInsufficientStock: http.StatusBadRequest,
	CodePlanUnavailable:   http.StatusBadRequest,
	CodeUnauthenticated:   http.StatusUnauthorized,
	CodeNotFound:          http.StatusNotFound,
	CodeRateLimited:       http.StatusTooManyRequests,
	CodeUnexpected:        http.StatusInternalServerError,
}

// Status returns the HTTP status a code is answered with. Unknown codes
// are treated as unexpected failures.
func (c ErrorCode) Status() int {
	if status, ok := errorStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the envelope of every failed request
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError writes the error envelope with the status of code
func RespondWithError(w http.ResponseWriter, code ErrorCode, message string) {
	RespondWithErrorDetails(w, code, message, nil)
}

// RespondWithErrorDetails is RespondWithError with machine-readable details
func RespondWithErrorDetails(w http.ResponseWriter, code ErrorCode, message string, details map[string]interface{}) {
	RespondWithJSON(w, code.Status(), ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// RespondWithValidationErrors reports field errors under
// details.validation_errors
func RespondWithValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	RespondWithErrorDetails(w, CodeValidation, "validation failed", map[string]interface{}{
		"validation_errors": errs,
	})
}

// ErrorHandlingMiddleware turns a panicking handler into a 500 without
// leaking the panic value to the client
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, CodeUnexpected, "internal server error")
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
