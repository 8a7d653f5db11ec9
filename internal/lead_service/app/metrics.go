package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leadSubmissionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgate",
			Name:      "submissions_total",
			Help:      "Total submit actions by form and outcome.",
		},
		[]string{"form", "outcome"}, // outcome: success, error, invalid, rejected
	)

	deliveryDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadgate",
			Name:      "delivery_duration_seconds",
			Help:      "Duration of calls to the message delivery endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"form"},
	)

	outcomeSinkErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgate",
			Name:      "outcome_sink_errors_total",
			Help:      "Delivery attempts a sink failed to record.",
		},
		[]string{"form"},
	)

	openSessionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "leadgate",
			Name:      "open_sessions",
			Help:      "Form sessions currently open.",
		},
	)
)
