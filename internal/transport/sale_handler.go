package transport

import (
	"net/http"

	"stockwave/internal/middleware"
	"stockwave/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleItemRequest is one line of a sale
type SaleItemRequest struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int              `json:"quantity" validate:"gt=0,lte=2147483647"`
	Price     *decimal.Decimal `json:"price" validate:"required"`
}

// CreateSaleRequest represents a checkout. Total is what the client
// computed; the stored total is always derived from the items.
type CreateSaleRequest struct {
	Items []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Total *decimal.Decimal  `json:"total"`
}

// SaleHandler handles HTTP requests for sales
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// RegisterRoutes registers the sale routes behind the auth middleware
func (h *SaleHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/sales", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListSales)
		r.Post("/", h.CreateSale)
	})
}

// CreateSale records a sale and decrements stock atomically
func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateSaleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	items := make([]service.SaleItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.SaleItemInput{
			// validated as a uuid above
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
			Price:     *item.Price,
		}
	}

	sale, err := h.saleService.CreateSale(r.Context(), userID, items, req.Total)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create sale")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, sale)
}

// ListSales returns the caller's most recent sales with their items
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	sales, err := h.saleService.ListSales(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list sales")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sales)
}
