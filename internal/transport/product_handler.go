package transport

import (
	"net/http"

	"stockwave/internal/middleware"
	"stockwave/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest represents the payload for a new product
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=128"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       int              `json:"stock" validate:"gte=0,lte=2147483647"`
	MinStock    *int             `json:"minStock" validate:"omitempty,lte=2147483647"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=128"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	MinStock    *int             `json:"minStock" validate:"omitempty,lte=2147483647"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
}

// AdjustStockRequest sets the stock of a product to an absolute value
type AdjustStockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0,lte=2147483647"`
}

// ProductHandler handles HTTP requests for the catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalog routes behind the auth middleware
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/search", h.Search)
		r.Get("/barcode-search/{barcode}", h.FindByBarcode)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
		r.Patch("/{id}/stock", h.AdjustStock)
	})
}

// ListProducts returns the caller's products, newest first
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.productService.ListProducts(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// CreateProduct adds a product to the caller's catalog
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), userID, service.ProductInput{
		Name:        req.Name,
		Barcode:     req.Barcode,
		Price:       *req.Price,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Description: req.Description,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// GetProduct returns one of the caller's products
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(r.Context(), userID, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// UpdateProduct applies a partial update to a product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "id", "product")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), userID, productID, service.ProductPatch{
		Name:        req.Name,
		Barcode:     req.Barcode,
		Price:       req.Price,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Description: req.Description,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product; past sales keep their item snapshots
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), userID, productID); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted successfully"})
}

// AdjustStock overwrites the stock level of a product
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "id", "product")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.AdjustStock(r.Context(), userID, productID, *req.Stock)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update stock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Search matches the query against product names and barcodes
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.productService.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// FindByBarcode returns the product whose barcode matches exactly
func (h *ProductHandler) FindByBarcode(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	product, err := h.productService.FindByExactBarcode(r.Context(), userID, chi.URLParam(r, "barcode"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to find product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}
