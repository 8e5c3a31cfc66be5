package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a plan payment
type PaymentStatus string

const (
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Plan is a global subscription tier
type Plan struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Slug        string          `json:"slug" db:"slug"`
	Description *string         `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Duration    int             `json:"duration" db:"duration_days"`
	Features    []string        `json:"features" db:"features"`
	IsActive    bool            `json:"isActive" db:"is_active"`
	IsPopular   bool            `json:"isPopular" db:"is_popular"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// IsFree reports whether the plan can be activated without a gateway.
func (p *Plan) IsFree() bool {
	return p.Price.IsZero()
}

// Payment records one attempt to buy a plan
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"userId" db:"user_id"`
	PlanID        string          `json:"planId" db:"plan_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        PaymentStatus   `json:"status" db:"status"`
	PaymentMethod *string         `json:"paymentMethod" db:"payment_method"`
	Metadata      PaymentMetadata `json:"metadata" db:"metadata"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	Plan          *Plan           `json:"plan,omitempty"`
}

// PaymentMetadata is stored as JSONB alongside the payment
type PaymentMetadata struct {
	PlanName     string `json:"planName"`
	PlanDuration int    `json:"planDuration"`
}
