package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	EventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellwatch_events_ingested_total",
			Help: "Total number of events admitted into the pipeline by type",
		},
		[]string{"type"},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellwatch_events_dropped_total",
			Help: "Total number of events dropped before dispatch by reason",
		},
		[]string{"reason"},
	)

	// Dispatch metrics
	DeliveriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cellwatch_deliveries_total",
			Help: "Total number of successful subscriber deliveries",
		},
	)

	DeliveryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cellwatch_delivery_failures_total",
			Help: "Total number of subscriber callbacks that returned an error or panicked",
		},
	)

	DispatchQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cellwatch_dispatch_queue_depth",
			Help: "Number of admitted events waiting in the dispatch queue",
		},
	)

	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cellwatch_dispatch_duration_seconds",
			Help:    "Time taken to match and schedule one event in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Subscription metrics
	SubscriptionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cellwatch_subscriptions_active",
			Help: "Number of live subscriptions",
		},
	)

	DebouncePending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cellwatch_debounce_pending",
			Help: "Number of armed debounce timers",
		},
	)

	// History metrics
	HistorySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cellwatch_history_size",
			Help: "Number of events held in the in-memory history buffer",
		},
	)

	ArchiveWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cellwatch_archive_writes_total",
			Help: "Total number of events appended to the durable archive",
		},
	)

	ArchiveErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cellwatch_archive_errors_total",
			Help: "Total number of archive append failures",
		},
	)
)

func init() {
	prometheus.MustRegister(
		EventsIngestedTotal,
		EventsDroppedTotal,
		DeliveriesTotal,
		DeliveryFailuresTotal,
		DispatchQueueDepth,
		DispatchDuration,
		SubscriptionsActive,
		DebouncePending,
		HistorySize,
		ArchiveWritesTotal,
		ArchiveErrorsTotal,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring durations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in the given histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}
