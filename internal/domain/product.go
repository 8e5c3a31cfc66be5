package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMinStock is applied when a product is saved without a usable
// minimum-stock threshold.
const DefaultMinStock = 5

// Product represents an item in a store owner's catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OwnerID     uuid.UUID       `json:"userId" db:"owner_id"`
	Name        string          `json:"name" db:"name"`
	Barcode     string          `json:"barcode" db:"barcode"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	MinStock    int             `json:"minStock" db:"min_stock"`
	Description *string         `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsLowStock reports whether the current stock is at or below the threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
