package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"stockwave/internal/domain"

	"github.com/google/uuid"
)

// PlanActivation moves a user onto a plan until ExpiresAt
type PlanActivation struct {
	PlanID    string
	ExpiresAt time.Time
}

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	// Create inserts the payment. A non-nil activation is applied to the
	// paying user in the same transaction.
	Create(ctx context.Context, payment *domain.Payment, activation *PlanActivation) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error)
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment, activation *PlanActivation) error {
	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode payment metadata: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin payment transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, user_id, plan_id, amount, status, payment_method, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)`,
		payment.ID,
		payment.UserID,
		payment.PlanID,
		payment.Amount,
		string(payment.Status),
		payment.PaymentMethod,
		string(metadata),
		payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if activation != nil {
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET current_plan_id = $2, plan_expires_at = $3, updated_at = $4
			WHERE id = $1`,
			payment.UserID, activation.PlanID, activation.ExpiresAt, payment.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to activate plan: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrUserNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}

	return nil
}

// ListByUser returns the user's payments with their plan, newest first
func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT p.id, p.user_id, p.plan_id, p.amount, p.status, p.payment_method, p.metadata, p.created_at,
		       pl.id, pl.name, pl.slug, pl.description, pl.price, pl.duration_days, pl.features,
		       pl.is_active, pl.is_popular, pl.created_at
		FROM payments p
		JOIN plans pl ON pl.id = p.plan_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*domain.Payment{}
	for rows.Next() {
		payment := &domain.Payment{Plan: &domain.Plan{}}
		var status string
		var metadata, features []byte
		err := rows.Scan(
			&payment.ID,
			&payment.UserID,
			&payment.PlanID,
			&payment.Amount,
			&status,
			&payment.PaymentMethod,
			&metadata,
			&payment.CreatedAt,
			&payment.Plan.ID,
			&payment.Plan.Name,
			&payment.Plan.Slug,
			&payment.Plan.Description,
			&payment.Plan.Price,
			&payment.Plan.Duration,
			&features,
			&payment.Plan.IsActive,
			&payment.Plan.IsPopular,
			&payment.Plan.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		payment.Status = domain.PaymentStatus(status)
		if err := json.Unmarshal(metadata, &payment.Metadata); err != nil {
			return nil, fmt.Errorf("invalid payment metadata: %w", err)
		}
		payment.Plan.Features = []string{}
		if err := json.Unmarshal(features, &payment.Plan.Features); err != nil {
			return nil, fmt.Errorf("invalid plan features: %w", err)
		}

		payments = append(payments, payment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}
