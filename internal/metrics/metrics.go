package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Reconciliation metrics
	SnapshotsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_snapshots_applied_total",
			Help: "Total number of full snapshots merged into the store",
		},
		[]string{"resource"},
	)
	IncrementalsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_incrementals_applied_total",
			Help: "Total number of push events merged into the store",
		},
		[]string{"resource"},
	)
	StaleRecordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_stale_records_dropped_total",
			Help: "Records discarded because a newer write already existed",
		},
		[]string{"resource"},
	)
	MalformedRecordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_malformed_records_dropped_total",
			Help: "Records discarded by validation before reaching the store",
		},
		[]string{"resource"},
	)
	LifecycleAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_lifecycle_anomalies_total",
			Help: "Status transitions that violate the expected lifecycle",
		},
		[]string{"resource"},
	)
	RecordsInStore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashboard_records_in_store",
			Help: "Current number of records held per collection",
		},
		[]string{"resource"},
	)

	// Transport metrics
	PollFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_poll_failures_total",
			Help: "Poll fetches that failed and will be retried next tick",
		},
		[]string{"resource"},
	)
	PollTicksSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_poll_ticks_skipped_total",
			Help: "Poll ticks skipped because the previous fetch was in flight",
		},
		[]string{"resource"},
	)
	StreamReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_stream_reconnects_total",
			Help: "Push connection reconnect attempts",
		},
	)
	UnknownEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_unknown_events_total",
			Help: "Push events with an unrecognized kind, logged and discarded",
		},
	)
	SessionInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_session_invalidations_total",
			Help: "Authorization failures that stopped the sync channels",
		},
	)
)

// InitMetrics registers all collectors with the default registry.
func InitMetrics() {
	prometheus.MustRegister(SnapshotsApplied)
	prometheus.MustRegister(IncrementalsApplied)
	prometheus.MustRegister(StaleRecordsDropped)
	prometheus.MustRegister(MalformedRecordsDropped)
	prometheus.MustRegister(LifecycleAnomalies)
	prometheus.MustRegister(RecordsInStore)

	prometheus.MustRegister(PollFailures)
	prometheus.MustRegister(PollTicksSkipped)
	prometheus.MustRegister(StreamReconnects)
	prometheus.MustRegister(UnknownEvents)
	prometheus.MustRegister(SessionInvalidations)

	prometheus.MustRegister(prometheus.NewGoCollector())
	prometheus.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}
