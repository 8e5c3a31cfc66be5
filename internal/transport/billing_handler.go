package transport

import (
	"net/http"

	"stockwave/internal/middleware"
	"stockwave/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PurchasePlanRequest represents a plan purchase. The payment is simulated.
type PurchasePlanRequest struct {
	PlanID        string  `json:"planId" validate:"required,max=64"`
	PaymentMethod *string `json:"paymentMethod" validate:"omitempty,max=64"`
}

// BillingHandler handles HTTP requests for plans and payments
type BillingHandler struct {
	billingService service.BillingService
	logger         *zap.Logger
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService service.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// RegisterRoutes registers the public plan listing and the payment routes
func (h *BillingHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/plans", h.ListPlans)

	r.Route("/payments", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListPayments)
		r.Post("/", h.PurchasePlan)
	})
}

// ListPlans returns every active plan, cheapest first
func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.billingService.ListActivePlans(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list plans")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, plans)
}

// PurchasePlan records a payment for a plan
func (h *BillingHandler) PurchasePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req PurchasePlanRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	payment, err := h.billingService.PurchasePlan(r.Context(), userID, req.PlanID, req.PaymentMethod)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to process payment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, payment)
}

// ListPayments returns the caller's payment history, newest first
func (h *BillingHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	payments, err := h.billingService.ListPayments(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list payments")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, payments)
}
