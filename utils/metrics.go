package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repair_bookings_created_total",
		Help: "Total number of repair bookings created",
	}, []string{"kind"}) // guest or user

	BookingStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repair_booking_status_changes_total",
		Help: "Total number of persisted booking status changes",
	}, []string{"status"})

	SMSNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sms_notifications_total",
		Help: "Total number of SMS dispatch attempts by outcome",
	}, []string{"template", "result"})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of rejected order creations",
	}, []string{"reason"})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Total number of requests rejected by a rate limit policy",
	}, []string{"policy"})

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
