// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsIngested counts log records persisted, by project.
	RecordsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whowhywhen_records_ingested_total",
		Help: "Log records persisted.",
	}, []string{"project_id"})

	// EnrichmentFailures counts non-fatal enrichment step failures.
	EnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whowhywhen_enrichment_failures_total",
		Help: "Enrichment steps that failed and fell back to defaults.",
	}, []string{"step"})

	// AlertsEmitted counts alert notifications written, by dimension.
	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whowhywhen_alerts_emitted_total",
		Help: "Alert notifications created.",
	}, []string{"dimension"})

	// DeliveryFailures counts notification deliveries that errored.
	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whowhywhen_alert_delivery_failures_total",
		Help: "Notification deliveries that failed after the notification was stored.",
	})
)
