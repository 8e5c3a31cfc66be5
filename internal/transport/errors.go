package transport

import (
	"errors"
	"fmt"
	"net/http"

	"stockwave/internal/middleware"
	"stockwave/internal/repository"
	"stockwave/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondWithServiceError maps service and repository errors onto HTTP
// statuses. Anything unrecognised is logged and answered with a generic 500
// carrying fallback as its message.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var validationErr *service.ValidationError
	var stockErr *repository.InsufficientStockError
	var missingErr *repository.ProductNotFoundError

	switch {
	case errors.As(err, &validationErr):
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: validationErr.Field, Message: validationErr.Message},
		})
	case errors.As(err, &stockErr):
		middleware.RespondWithErrorDetails(w, middleware.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for %s", stockErr.ProductName),
			map[string]interface{}{
				"productId":   stockErr.ProductID.String(),
				"productName": stockErr.ProductName,
				"available":   stockErr.Available,
				"requested":   stockErr.Requested,
			})
	case errors.As(err, &missingErr):
		middleware.RespondWithErrorDetails(w, middleware.CodeNotFound, "product not found",
			map[string]interface{}{"productId": missingErr.ProductID.String()})
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, middleware.CodeNotFound, "product not found")
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, middleware.CodeNotFound, "user not found")
	case errors.Is(err, repository.ErrPlanNotFound):
		middleware.RespondWithError(w, middleware.CodeNotFound, "plan not found")
	case errors.Is(err, repository.ErrBarcodeTaken):
		middleware.RespondWithError(w, middleware.CodeConflict, "barcode already registered")
	case errors.Is(err, repository.ErrUserAlreadyExists):
		middleware.RespondWithError(w, middleware.CodeConflict, "user with this email already exists")
	case errors.Is(err, service.ErrPlanInactive):
		middleware.RespondWithError(w, middleware.CodePlanUnavailable, "plan is not available")
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, middleware.CodeUnauthenticated, "invalid email or password")
	default:
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, middleware.CodeUnexpected, fallback)
	}
}

// currentUser returns the user id stored by the auth middleware
func currentUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, middleware.CodeUnauthenticated, "not authenticated")
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a UUID URL parameter. Malformed ids cannot match any
// owned entity, so they are answered with 404.
func pathUUID(w http.ResponseWriter, r *http.Request, name, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, middleware.CodeNotFound, entity+" not found")
		return uuid.Nil, false
	}
	return id, true
}
