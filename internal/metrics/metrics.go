// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's collectors.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	OrdersPlaced        *prometheus.CounterVec
	VouchersRedeemed    prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "storefront",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		OrdersPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Name:      "orders_placed_total",
				Help:      "Orders successfully placed, by payment method",
			},
			[]string{"payment_method"},
		),
		VouchersRedeemed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Name:      "vouchers_redeemed_total",
				Help:      "Voucher uses recorded at order placement",
			},
		),
		StatusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Name:      "order_status_transitions_total",
				Help:      "Committed order status transitions",
			},
			[]string{"from", "to"},
		),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.OrdersPlaced,
		m.VouchersRedeemed,
		m.StatusTransitions,
	)

	return m
}
