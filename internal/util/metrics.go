package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PincodeLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pincode_lookups_total",
		Help: "Total number of pincode serviceability lookups",
	}, []string{"result"})

	PincodeCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pincode_cache_hits_total",
		Help: "Total number of pincode lookups served from cache",
	})

	PincodeCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pincode_cache_misses_total",
		Help: "Total number of pincode lookups that missed the cache",
	})

	CouponEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_evaluations_total",
		Help: "Total number of coupon evaluations by outcome",
	}, []string{"result"})

	CouponCommitFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupon_commit_failed_total",
		Help: "Total number of coupon usage commits that found no usage left",
	})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Total number of order status updates by target status",
	}, []string{"status"})

	PaymentGatewayOrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_orders_total",
		Help: "Total number of gateway orders requested",
	}, []string{"result"})

	PaymentGatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_gateway_latency_seconds",
		Help:    "Latency of payment gateway order creation",
		Buckets: prometheus.DefBuckets,
	})

	PaymentVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Total number of payment signature verifications",
	}, []string{"result"})

	ReviewsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_written_total",
		Help: "Total number of review writes",
	}, []string{"op"})

	RatingRecomputeFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_recompute_failed_total",
		Help: "Total number of product rating refreshes that failed after a review write",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
