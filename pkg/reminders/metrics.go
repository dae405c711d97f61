package reminders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillbox_reminder_registrations_total",
			Help: "Reminder registrations by outcome",
		},
		[]string{"outcome"},
	)

	PermissionDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pillbox_reminder_permission_denied_total",
			Help: "Scheduling attempts skipped because notifications are not allowed",
		},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillbox_reminder_deliveries_total",
			Help: "Reminder deliveries by outcome",
		},
		[]string{"outcome"},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pillbox_reminder_dispatch_duration_seconds",
			Help:    "Duration of one dispatcher pass",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)
