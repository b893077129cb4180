package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	}, []string{"kind"})

	OrdersExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_expired_total",
		Help: "Total number of pending orders found past expiry",
	})

	OrdersPaidTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders successfully paid",
	}, []string{"kind"})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	PaymeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payme_requests_total",
		Help: "Total number of Payme merchant API calls",
	}, []string{"method", "outcome"})

	PaymeRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payme_request_duration_seconds",
		Help:    "Latency of Payme merchant API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	TransactionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payme_transactions_created_total",
		Help: "Total number of Payme transactions created",
	})

	TransactionsPerformedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payme_transactions_performed_total",
		Help: "Total number of Payme transactions performed",
	})

	TransactionsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payme_transactions_cancelled_total",
		Help: "Total number of Payme transactions cancelled",
	}, []string{"state"})

	TransactionsTimedOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payme_transactions_timed_out_total",
		Help: "Total number of Payme transactions cancelled by timeout",
	})

	FulfillmentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fulfillment_latency_seconds",
		Help:    "Latency of granting purchased entitlements",
		Buckets: prometheus.DefBuckets,
	})

	FulfillmentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_failed_total",
		Help: "Total number of failed fulfillments",
	}, []string{"kind"})

	EventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_publish_failed_total",
		Help: "Total number of domain events that could not be published",
	}, []string{"type"})

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
