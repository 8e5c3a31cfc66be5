package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"stockwave/internal/domain"
	"stockwave/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// MinSearchLength is the shortest trimmed query that runs a search
	MinSearchLength = 2

	// SearchLimit caps the number of search results
	SearchLimit = 10

	autoBarcodePrefix = "AUTO-"
	base36Alphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// ProductInput carries the fields of a new product
type ProductInput struct {
	Name        string
	Barcode     *string
	Price       decimal.Decimal
	Stock       int
	MinStock    *int
	Description *string
}

// ProductPatch carries the fields to change on an existing product.
// Nil fields are left as they are.
type ProductPatch struct {
	Name        *string
	Barcode     *string
	Price       *decimal.Decimal
	Stock       *int
	MinStock    *int
	Description *string
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	CreateProduct(ctx context.Context, ownerID uuid.UUID, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, ownerID, productID uuid.UUID, patch ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, ownerID, productID uuid.UUID) error
	AdjustStock(ctx context.Context, ownerID, productID uuid.UUID, stock int) (*domain.Product, error)
	GetProduct(ctx context.Context, ownerID, productID uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error)
	Search(ctx context.Context, ownerID uuid.UUID, query string) ([]*domain.Product, error)
	FindByExactBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// CreateProduct stores a new product. A barcode that already exists in any
// catalog is rejected with repository.ErrBarcodeTaken.
func (s *productService) CreateProduct(ctx context.Context, ownerID uuid.UUID, in ProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if err := checkPrice("price", in.Price); err != nil {
		return nil, err
	}
	if err := checkCount("stock", in.Stock, 0); err != nil {
		return nil, err
	}
	if err := checkMinStock(in.MinStock); err != nil {
		return nil, err
	}

	barcode := ""
	if in.Barcode != nil {
		barcode = strings.TrimSpace(*in.Barcode)
	}
	if barcode == "" {
		generated, err := generateBarcode(time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to generate barcode: %w", err)
		}
		barcode = generated
	} else if err := s.ensureBarcodeFree(ctx, barcode, uuid.Nil); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Barcode:     barcode,
		Price:       in.Price,
		Stock:       in.Stock,
		MinStock:    minStockOrDefault(in.MinStock),
		Description: optionalString(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrBarcodeTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("user_id", ownerID.String()),
		zap.String("product_id", product.ID.String()),
	)

	return product, nil
}

// UpdateProduct applies patch to a product of ownerID. Only the fields set
// in patch are written, so stock sold while the edit is in flight is kept.
// Keeping the current barcode is always allowed; a new one must not exist on
// any other product.
func (s *productService) UpdateProduct(ctx context.Context, ownerID, productID uuid.UUID, patch ProductPatch) (*domain.Product, error) {
	current, err := s.productRepo.FindByID(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}

	changes := repository.ProductChanges{UpdatedAt: time.Now().UTC()}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		changes.Name = &name
	}
	if patch.Price != nil {
		if err := checkPrice("price", *patch.Price); err != nil {
			return nil, err
		}
		changes.Price = patch.Price
	}
	if patch.Stock != nil {
		if err := checkCount("stock", *patch.Stock, 0); err != nil {
			return nil, err
		}
		changes.Stock = patch.Stock
	}
	if patch.MinStock != nil {
		if err := checkMinStock(patch.MinStock); err != nil {
			return nil, err
		}
		minStock := minStockOrDefault(patch.MinStock)
		changes.MinStock = &minStock
	}
	if patch.Description != nil {
		changes.SetDescription = true
		changes.Description = optionalString(patch.Description)
	}
	if patch.Barcode != nil {
		barcode := strings.TrimSpace(*patch.Barcode)
		if barcode != "" && barcode != current.Barcode {
			if err := s.ensureBarcodeFree(ctx, barcode, current.ID); err != nil {
				return nil, err
			}
			changes.Barcode = &barcode
		}
	}

	product, err := s.productRepo.Update(ctx, ownerID, productID, changes)
	if err != nil {
		if errors.Is(err, repository.ErrBarcodeTaken) || errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct removes a product. Sale items keep their name snapshot.
func (s *productService) DeleteProduct(ctx context.Context, ownerID, productID uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, ownerID, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product deleted",
		zap.String("user_id", ownerID.String()),
		zap.String("product_id", productID.String()),
	)

	return nil
}

// AdjustStock overwrites the stock level. The value is absolute, not a delta.
func (s *productService) AdjustStock(ctx context.Context, ownerID, productID uuid.UUID, stock int) (*domain.Product, error) {
	if err := checkCount("stock", stock, 0); err != nil {
		return nil, err
	}

	product, err := s.productRepo.UpdateStock(ctx, ownerID, productID, stock, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, ownerID, productID uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, ownerID, productID)
}

func (s *productService) ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error) {
	products, err := s.productRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Search returns an empty result for queries shorter than MinSearchLength
func (s *productService) Search(ctx context.Context, ownerID uuid.UUID, query string) ([]*domain.Product, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchLength {
		return []*domain.Product{}, nil
	}

	products, err := s.productRepo.Search(ctx, ownerID, query, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// FindByExactBarcode is the case-sensitive lookup used at checkout.
// Surrounding whitespace from scanners is ignored.
func (s *productService) FindByExactBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, repository.ErrProductNotFound
	}
	return s.productRepo.FindByOwnerAndBarcode(ctx, ownerID, barcode)
}

// ensureBarcodeFree fails with ErrBarcodeTaken when barcode belongs to a
// product other than self
func (s *productService) ensureBarcodeFree(ctx context.Context, barcode string, self uuid.UUID) error {
	existing, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check barcode: %w", err)
	}
	if existing.ID != self {
		return repository.ErrBarcodeTaken
	}
	return nil
}

// checkMinStock rejects thresholds the column cannot hold. Negative values
// are not an error; they fall back to the default.
func checkMinStock(minStock *int) error {
	if minStock == nil || *minStock < 0 {
		return nil
	}
	return checkCount("minStock", *minStock, 0)
}

func minStockOrDefault(minStock *int) int {
	if minStock == nil || *minStock < 0 {
		return domain.DefaultMinStock
	}
	return *minStock
}

// generateBarcode returns a placeholder of the form AUTO-<unix millis>-<9 base36 chars>
func generateBarcode(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(autoBarcodePrefix)
	fmt.Fprintf(&b, "%d-", now.UnixMilli())

	alphabetLen := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < 9; i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}

	return b.String(), nil
}
