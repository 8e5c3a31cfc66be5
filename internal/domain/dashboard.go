package domain

import "github.com/shopspring/decimal"

// Stats summarises an owner's catalog and sales
type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	LowStockCount int             `json:"lowStockCount"`
	TotalSales    int             `json:"totalSales"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

// BestSeller is the aggregated quantity sold for one product
type BestSeller struct {
	ProductID *string `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
}

// DailySales is the sale count and revenue for one calendar day (UTC)
type DailySales struct {
	Date    string          `json:"date"`
	Sales   int             `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}
