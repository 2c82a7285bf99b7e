package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking ledger metrics
	BookingsCreated   prometheus.Counter
	SlotConflicts     prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	ConflictCheckTime prometheus.Histogram

	// Notification pipeline metrics
	NotificationsEmitted    prometheus.Counter
	NotificationsDispatched prometheus.Counter
	NotificationsFailed     prometheus.Counter
	DispatchLatency         prometheus.Histogram
}

// NewMetrics creates and registers all application metrics on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of bookings admitted by the ledger",
		}),
		SlotConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_conflicts_total",
			Help:      "Total number of booking attempts rejected for overlapping an active booking",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Total number of booking status transitions by target status",
		}, []string{"target"}),
		ConflictCheckTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conflict_check_duration_seconds",
			Help:      "Time spent inside the per-provider critical section",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		NotificationsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_emitted_total",
			Help:      "Total number of notification events staged in the outbox",
		}),
		NotificationsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Total number of notification events delivered by the worker",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of notification events that failed delivery",
		}),
		DispatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_dispatch_duration_seconds",
			Help:      "Time spent dispatching a batch of outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
}
