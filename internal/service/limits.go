package service

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Bounds of the numeric columns products and sales are stored in
const (
	// MaxCount is the largest stock, minimum stock or quantity an INTEGER column holds
	MaxCount = math.MaxInt32

	// PriceScale is the number of decimal places kept for money
	PriceScale = 2
)

var (
	// unit prices are DECIMAL(10,2)
	maxUnitPrice = decimal.New(1, 8)
	// subtotals and sale totals are DECIMAL(12,2)
	maxAmount = decimal.New(1, 10)
)

// checkPrice accepts non-negative unit prices with at most two decimal
// places that fit the price column
func checkPrice(field string, price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return invalid(field, "must not be negative")
	case !price.Equal(price.Round(PriceScale)):
		return invalid(field, fmt.Sprintf("must have at most %d decimal places", PriceScale))
	case price.GreaterThanOrEqual(maxUnitPrice):
		return invalid(field, "must be less than "+maxUnitPrice.String())
	}
	return nil
}

// checkAmount guards computed subtotals and totals
func checkAmount(field string, amount decimal.Decimal) error {
	if amount.GreaterThanOrEqual(maxAmount) {
		return invalid(field, "must be less than "+maxAmount.String())
	}
	return nil
}

// checkCount accepts integers in [floor, MaxCount]
func checkCount(field string, n, floor int) error {
	switch {
	case n < floor && floor == 0:
		return invalid(field, "must not be negative")
	case n < floor:
		return invalid(field, fmt.Sprintf("must be at least %d", floor))
	case n > MaxCount:
		return invalid(field, fmt.Sprintf("must be at most %d", MaxCount))
	}
	return nil
}
