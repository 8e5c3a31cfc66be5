package transport

import (
	"net/http"
	"strconv"

	"stockwave/internal/middleware"
	"stockwave/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DashboardHandler serves the aggregate views of the dashboard
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// RegisterRoutes registers the dashboard routes behind the auth middleware
func (h *DashboardHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/stats", h.Stats)
		r.Get("/best-sellers", h.BestSellers)
		r.Get("/low-stock", h.LowStock)
		r.Get("/sales-data", h.SalesData)
	})
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.dashboardService.Stats(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to load dashboard stats")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	sellers, err := h.dashboardService.BestSellers(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to load best sellers")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sellers)
}

func (h *DashboardHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.dashboardService.LowStock(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to load low stock products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// SalesData returns per-day totals. The optional days parameter selects
// the window; an absent value uses the default.
func (h *DashboardHandler) SalesData(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "days", Message: "days must be a whole number"},
			})
			return
		}
		days = parsed
	}

	daily, err := h.dashboardService.SalesByDay(r.Context(), userID, days)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to load sales data")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, daily)
}
