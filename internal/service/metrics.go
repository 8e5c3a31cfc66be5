package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	salesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_created_total",
		Help: "Number of committed sales.",
	})

	salesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_rejected_total",
		Help: "Number of sales rolled back, by reason.",
	}, []string{"reason"})
)

const (
	rejectValidation        = "validation"
	rejectProductNotFound   = "product_not_found"
	rejectInsufficientStock = "insufficient_stock"
	rejectError             = "error"
)
