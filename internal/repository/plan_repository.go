package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"stockwave/internal/domain"
)

var ErrPlanNotFound = errors.New("plan not found")

const planColumns = `id, name, slug, description, price, duration_days, features, is_active, is_popular, created_at`

// PlanRepository defines the interface for the global plan catalog
type PlanRepository interface {
	ListActive(ctx context.Context) ([]*domain.Plan, error)
	FindByID(ctx context.Context, id string) (*domain.Plan, error)
}

type planRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new instance of PlanRepository
func NewPlanRepository(db *sql.DB) PlanRepository {
	return &planRepository{db: db}
}

// ListActive returns purchasable plans, cheapest first
func (r *planRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE is_active = TRUE
		ORDER BY price ASC, name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []*domain.Plan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// FindByID retrieves a plan whether or not it is active
func (r *planRepository) FindByID(ctx context.Context, id string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}

	return plan, nil
}

func scanPlan(row scanner) (*domain.Plan, error) {
	plan := &domain.Plan{}
	var features []byte
	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Slug,
		&plan.Description,
		&plan.Price,
		&plan.Duration,
		&features,
		&plan.IsActive,
		&plan.IsPopular,
		&plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.Features = []string{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &plan.Features); err != nil {
			return nil, fmt.Errorf("invalid plan features: %w", err)
		}
	}

	return plan, nil
}
