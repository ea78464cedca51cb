// Package metrics holds the prometheus collectors shared by middleware and services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrderStatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"from", "to"},
	)

	QRCodesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_codes_generated_total",
			Help: "Total number of QR codes generated",
		},
		[]string{"kind"},
	)
)
