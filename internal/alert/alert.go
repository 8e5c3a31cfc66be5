// Package alert publishes low-stock notifications raised by committed sales.
package alert

import (
	"context"
	"time"

	"stockwave/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LowStockRoutingKey is the routing key of low-stock messages
const LowStockRoutingKey = "stock.low"

// LowStockAlert is the message body for a product at or below its minimum stock
type LowStockAlert struct {
	OwnerID     uuid.UUID `json:"userId"`
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Barcode     string    `json:"barcode"`
	Stock       int       `json:"stock"`
	MinStock    int       `json:"minStock"`
	RaisedAt    time.Time `json:"raisedAt"`
}

// NewLowStockAlert builds the alert for a product
func NewLowStockAlert(p *domain.Product, raisedAt time.Time) LowStockAlert {
	return LowStockAlert{
		OwnerID:     p.OwnerID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Barcode:     p.Barcode,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		RaisedAt:    raisedAt,
	}
}

// Publisher delivers low-stock alerts
type Publisher interface {
	PublishLowStock(ctx context.Context, alerts []LowStockAlert) error
	Close() error
}

type logPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher returns a Publisher that only writes alerts to the log
func NewLogPublisher(logger *zap.Logger) Publisher {
	return &logPublisher{logger: logger}
}

func (p *logPublisher) PublishLowStock(_ context.Context, alerts []LowStockAlert) error {
	for _, a := range alerts {
		p.logger.Warn("Low stock",
			zap.String("user_id", a.OwnerID.String()),
			zap.String("product_id", a.ProductID.String()),
			zap.String("product_name", a.ProductName),
			zap.Int("stock", a.Stock),
			zap.Int("min_stock", a.MinStock),
		)
	}
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}
