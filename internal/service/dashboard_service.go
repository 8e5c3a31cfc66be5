package service

import (
	"context"
	"fmt"
	"time"

	"stockwave/internal/domain"
	"stockwave/internal/repository"

	"github.com/google/uuid"
)

const (
	// DefaultSalesWindowDays is the trailing window of SalesByDay
	DefaultSalesWindowDays = 7

	// MaxSalesWindowDays bounds the window a caller may request
	MaxSalesWindowDays = 90

	bestSellerLimit = 10
)

// DashboardService defines the interface for read-only reporting
type DashboardService interface {
	Stats(ctx context.Context, ownerID uuid.UUID) (*domain.Stats, error)
	BestSellers(ctx context.Context, ownerID uuid.UUID) ([]*domain.BestSeller, error)
	LowStock(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error)
	SalesByDay(ctx context.Context, ownerID uuid.UUID, days int) ([]*domain.DailySales, error)
}

type dashboardService struct {
	dashboardRepo repository.DashboardRepository
	productRepo   repository.ProductRepository
	now           func() time.Time
}

// NewDashboardService creates a new instance of DashboardService
func NewDashboardService(dashboardRepo repository.DashboardRepository, productRepo repository.ProductRepository) DashboardService {
	return &dashboardService{
		dashboardRepo: dashboardRepo,
		productRepo:   productRepo,
		now:           time.Now,
	}
}

func (s *dashboardService) Stats(ctx context.Context, ownerID uuid.UUID) (*domain.Stats, error) {
	stats, err := s.dashboardRepo.Stats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

func (s *dashboardService) BestSellers(ctx context.Context, ownerID uuid.UUID) ([]*domain.BestSeller, error) {
	sellers, err := s.dashboardRepo.BestSellers(ctx, ownerID, bestSellerLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get best sellers: %w", err)
	}
	return sellers, nil
}

func (s *dashboardService) LowStock(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error) {
	products, err := s.productRepo.ListLowStock(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	return products, nil
}

// SalesByDay covers today and the days-1 calendar days before it (UTC)
func (s *dashboardService) SalesByDay(ctx context.Context, ownerID uuid.UUID, days int) ([]*domain.DailySales, error) {
	if days == 0 {
		days = DefaultSalesWindowDays
	}
	if days < 1 || days > MaxSalesWindowDays {
		return nil, invalid("days", fmt.Sprintf("must be between 1 and %d", MaxSalesWindowDays))
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	daily, err := s.dashboardRepo.SalesByDay(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales by day: %w", err)
	}
	return daily, nil
}
