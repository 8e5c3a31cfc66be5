package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockwave/internal/alert"
	"stockwave/internal/domain"
	"stockwave/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// SaleListLimit caps the number of sales returned by ListSales
	SaleListLimit = 50

	alertTimeout = 5 * time.Second
)

// SaleItemInput is one cart line as submitted at checkout
type SaleItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// SaleService defines the interface for checkout logic
type SaleService interface {
	// CreateSale records the cart atomically. The stored total is computed
	// from the items; declaredTotal is only compared against it.
	CreateSale(ctx context.Context, ownerID uuid.UUID, items []SaleItemInput, declaredTotal *decimal.Decimal) (*domain.Sale, error)
	ListSales(ctx context.Context, ownerID uuid.UUID) ([]*domain.Sale, error)
}

type saleService struct {
	saleRepo repository.SaleRepository
	alerts   alert.Publisher
	logger   *zap.Logger
}

// NewSaleService creates a new instance of SaleService
func NewSaleService(saleRepo repository.SaleRepository, alerts alert.Publisher, logger *zap.Logger) SaleService {
	return &saleService{
		saleRepo: saleRepo,
		alerts:   alerts,
		logger:   logger,
	}
}

func (s *saleService) CreateSale(ctx context.Context, ownerID uuid.UUID, items []SaleItemInput, declaredTotal *decimal.Decimal) (*domain.Sale, error) {
	lines, err := toSaleLines(items)
	if err != nil {
		salesRejected.WithLabelValues(rejectValidation).Inc()
		return nil, err
	}

	total := domain.SaleTotal(lines)
	if declaredTotal != nil && !declaredTotal.Equal(total) {
		s.logger.Warn("Declared sale total differs from items",
			zap.String("user_id", ownerID.String()),
			zap.String("declared", declaredTotal.String()),
			zap.String("computed", total.String()),
		)
	}

	sale := &domain.Sale{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}

	touched, err := s.saleRepo.Create(ctx, sale, lines)
	if err != nil {
		var stockErr *repository.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			salesRejected.WithLabelValues(rejectInsufficientStock).Inc()
			return nil, err
		case errors.Is(err, repository.ErrProductNotFound):
			salesRejected.WithLabelValues(rejectProductNotFound).Inc()
			return nil, err
		default:
			salesRejected.WithLabelValues(rejectError).Inc()
			return nil, fmt.Errorf("failed to create sale: %w", err)
		}
	}

	salesCreated.Inc()
	s.logger.Info("Sale created",
		zap.String("user_id", ownerID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int("items", len(sale.Items)),
		zap.String("total", sale.Total.String()),
	)

	s.publishLowStock(ctx, touched, lines, sale.CreatedAt)

	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, ownerID uuid.UUID) ([]*domain.Sale, error) {
	sales, err := s.saleRepo.ListByOwner(ctx, ownerID, SaleListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

// publishLowStock alerts on products this sale pushed to or below their
// minimum stock. Products that were already low before the sale stay quiet.
// Publishing never fails the sale; it is already committed.
func (s *saleService) publishLowStock(ctx context.Context, products []*domain.Product, lines []domain.SaleLine, at time.Time) {
	sold := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		sold[line.ProductID] += line.Quantity
	}

	var alerts []alert.LowStockAlert
	for _, p := range products {
		stockBefore := p.Stock + sold[p.ID]
		if p.IsLowStock() && stockBefore > p.MinStock {
			alerts = append(alerts, alert.NewLowStockAlert(p, at))
		}
	}
	if len(alerts) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()

	if err := s.alerts.PublishLowStock(ctx, alerts); err != nil {
		s.logger.Error("Failed to publish low stock alerts", zap.Error(err), zap.Int("alerts", len(alerts)))
	}
}

func toSaleLines(items []SaleItemInput) ([]domain.SaleLine, error) {
	if len(items) == 0 {
		return nil, invalid("items", "must contain at least one item")
	}

	lines := make([]domain.SaleLine, 0, len(items))
	total := decimal.Zero
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ProductID == uuid.Nil {
			return nil, invalid(field+".productId", "is required")
		}
		if err := checkCount(field+".quantity", item.Quantity, 1); err != nil {
			return nil, err
		}
		if err := checkPrice(field+".price", item.Price); err != nil {
			return nil, err
		}

		line := domain.SaleLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if err := checkAmount(field+".subtotal", line.Subtotal()); err != nil {
			return nil, err
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}

	if err := checkAmount("total", total); err != nil {
		return nil, err
	}

	return lines, nil
}
