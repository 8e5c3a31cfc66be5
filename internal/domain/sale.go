package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a committed checkout. Sales are never edited after creation.
type Sale struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OwnerID   uuid.UUID       `json:"userId" db:"owner_id"`
	Total     decimal.Decimal `json:"total" db:"total"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	Items     []SaleItem      `json:"items"`
}

// SaleItem is one cart line of a sale. ProductID becomes nil once the
// product is deleted; ProductName keeps the name it had at sale time.
type SaleItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	SaleID      uuid.UUID       `json:"saleId" db:"sale_id"`
	ProductID   *uuid.UUID      `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// SaleLine is a requested cart line before it is persisted
type SaleLine struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal returns price × quantity for the line.
func (l SaleLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SaleTotal adds up the subtotals of the lines
func SaleTotal(lines []SaleLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}
