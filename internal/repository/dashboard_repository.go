package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockwave/internal/domain"

	"github.com/google/uuid"
)

// DashboardRepository runs read-only aggregates over an owner's data
type DashboardRepository interface {
	Stats(ctx context.Context, ownerID uuid.UUID) (*domain.Stats, error)
	BestSellers(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.BestSeller, error)
	SalesByDay(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]*domain.DailySales, error)
}

type dashboardRepository struct {
	db *sql.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository
func NewDashboardRepository(db *sql.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) Stats(ctx context.Context, ownerID uuid.UUID) (*domain.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products WHERE owner_id = $1),
			(SELECT COUNT(*) FROM products WHERE owner_id = $1 AND stock <= min_stock),
			(SELECT COUNT(*) FROM sales WHERE owner_id = $1),
			(SELECT COALESCE(SUM(total), 0) FROM sales WHERE owner_id = $1)
	`

	stats := &domain.Stats{}
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&stats.TotalProducts,
		&stats.LowStockCount,
		&stats.TotalSales,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	return stats, nil
}

// BestSellers sums sold quantities per product. Items of deleted products
// are grouped by their name snapshot.
func (r *dashboardRepository) BestSellers(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.BestSeller, error) {
	query := `
		SELECT MAX(si.product_id::text) AS product_id,
		       COALESCE(MAX(p.name), MAX(si.product_name)) AS name,
		       SUM(si.quantity) AS quantity
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		LEFT JOIN products p ON p.id = si.product_id
		WHERE s.owner_id = $1
		GROUP BY COALESCE(si.product_id::text, 'deleted:' || si.product_name)
		ORDER BY quantity DESC, name ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load best sellers: %w", err)
	}
	defer rows.Close()

	sellers := []*domain.BestSeller{}
	for rows.Next() {
		seller := &domain.BestSeller{}
		if err := rows.Scan(&seller.ProductID, &seller.Name, &seller.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan best seller: %w", err)
		}
		sellers = append(sellers, seller)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating best sellers: %w", err)
	}

	return sellers, nil
}

// SalesByDay groups sales created at or after since by UTC calendar day
func (r *dashboardRepository) SalesByDay(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]*domain.DailySales, error) {
	query := `
		SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day,
		       COUNT(*),
		       COALESCE(SUM(total), 0)
		FROM sales
		WHERE owner_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales by day: %w", err)
	}
	defer rows.Close()

	days := []*domain.DailySales{}
	for rows.Next() {
		day := &domain.DailySales{}
		if err := rows.Scan(&day.Date, &day.Sales, &day.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan daily sales: %w", err)
		}
		days = append(days, day)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily sales: %w", err)
	}

	return days, nil
}
