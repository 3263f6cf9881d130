// Package telemetry holds Prometheus metrics for business-level
// observability.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the order and subscription
// lifecycle.
type BusinessMetrics struct {
	// Orders
	OrdersCreated      *prometheus.CounterVec
	OrdersCancelled    prometheus.Counter
	OrderTransitions   *prometheus.CounterVec
	OrderValue         prometheus.Histogram
	OrderItemCount     prometheus.Histogram

	// Subscriptions
	SubscriptionsCreated   *prometheus.CounterVec
	SubscriptionsSuspended prometheus.Counter
	SubscriptionsResumed   prometheus.Counter
	SubscriptionsCancelled prometheus.Counter
	SubscriptionsExpired   prometheus.Counter
	SubscriptionRenewals   *prometheus.CounterVec

	// Renewal worker
	RenewalRuns     prometheus.Counter
	RenewalFailures prometheus.Counter
}

// NewBusinessMetrics registers all business metrics with the given
// registerer. Pass prometheus.DefaultRegisterer in production.
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(reg)

	return &BusinessMetrics{
		OrdersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bss_orders_created_total",
			Help: "Orders created, by order type.",
		}, []string{"order_type"}),
		OrdersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "bss_orders_cancelled_total",
			Help: "Orders cancelled.",
		}),
		OrderTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bss_order_transitions_total",
			Help: "Order status transitions, by source and target status.",
		}, []string{"from", "to"}),
		OrderValue: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bss_order_value",
			Help:    "Total order amount at creation.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
		OrderItemCount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bss_order_item_count",
			Help:    "Number of items per order at creation.",
			Buckets: []float64{1, 2, 3, 5, 10, 20},
		}),
		SubscriptionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bss_subscriptions_created_total",
			Help: "Subscriptions created, by billing period.",
		}, []string{"billing_period"}),
		SubscriptionsSuspended: factory.NewCounter(prometheus.CounterOpts{
			Name: "bss_subscriptions_suspended_total",
			Help: "Subscriptions suspended.",
		}),
		SubscriptionsResumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bss_subscriptions_resumed_total",
			Help: "Subscriptions resumed from suspension.",
		}),
		SubscriptionsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "bss_subscriptions_cancelled_total",
			Help: "Subscriptions cancelled.",
		}),
		SubscriptionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "bss_subscriptions_expired_total",
			Help: "Subscriptions expired.",
		}),
		SubscriptionRenewals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bss_subscription_renewals_total",
			Help: "Subscription renewals, by billing period.",
		}, []string{"billing_period"}),
		RenewalRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "bss_renewal_worker_runs_total",
			Help: "Renewal worker poll cycles.",
		}),
		RenewalFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "bss_renewal_worker_failures_total",
			Help: "Renewal attempts that failed.",
		}),
	}
}
