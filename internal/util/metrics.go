package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_created_total",
		Help: "Total number of POS orders created, by outcome (normal, emergency)",
	}, []string{"outcome"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_failed_total",
		Help: "Total number of rejected or failed order requests",
	}, []string{"reason"})

	OrderCreationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_order_creation_latency_seconds",
		Help:    "Latency of the order creation transaction",
		Buckets: prometheus.DefBuckets,
	})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_entity_resolutions_total",
		Help: "Entity resolutions by entity and outcome",
	}, []string{"entity", "outcome"})

	ProductCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_product_cache_total",
		Help: "Product id cache lookups by result (hit, miss, stale, error)",
	}, []string{"result"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_notifications_total",
		Help: "Notification strategy attempts by strategy and result",
	}, []string{"strategy", "result"})

	PermissionGrantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_permission_grants_total",
		Help: "Group memberships granted by the permission restorer",
	}, []string{"trigger"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_events_published_total",
		Help: "Domain events published to Kafka",
	}, []string{"type", "result"})

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
