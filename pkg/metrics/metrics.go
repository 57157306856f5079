// Package metrics exposes Prometheus collectors for the monitor service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal        *prometheus.CounterVec
	newItemsTotal      *prometheus.CounterVec
	feedFailuresTotal  *prometheus.CounterVec
	signalsTotal       *prometheus.CounterVec
	deliveriesTotal    *prometheus.CounterVec
	cycleDuration      prometheus.Histogram
	heartbeatAge       prometheus.Gauge
	stalled            prometheus.Gauge
	storageErrorsTotal *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. It is safe to call more than once.
func Init() {
	once.Do(func() {
		cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_cycles_total",
			Help: "Poll cycles completed, labeled by whether they found new items.",
		}, []string{"found_new"})

		newItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_new_items_total",
			Help: "Unseen feed items, labeled by feed.",
		}, []string{"feed"})

		feedFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_feed_failures_total",
			Help: "Feed fetch or parse failures, labeled by feed.",
		}, []string{"feed"})

		signalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_signals_total",
			Help: "Actionable signals appended to the signal log, labeled by action.",
		}, []string{"action"})

		deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_deliveries_total",
			Help: "Per-subscriber routing outcomes.",
		}, []string{"outcome"})

		cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_cycle_duration_seconds",
			Help:    "Wall time of a full poll cycle.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		})

		heartbeatAge = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_heartbeat_age_seconds",
			Help: "Age of the last heartbeat as observed by the watchdog.",
		})

		stalled = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_stalled",
			Help: "1 when the watchdog considers the worker stalled.",
		})

		storageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_storage_errors_total",
			Help: "Persistence failures, labeled by store.",
		}, []string{"store"})
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveCycle(foundNew bool, seconds float64) {
	Init()
	label := "false"
	if foundNew {
		label = "true"
	}
	cyclesTotal.WithLabelValues(label).Inc()
	cycleDuration.Observe(seconds)
}

func AddNewItems(feed string, n int) {
	Init()
	if n > 0 {
		newItemsTotal.WithLabelValues(feed).Add(float64(n))
	}
}

func IncFeedFailure(feed string) {
	Init()
	feedFailuresTotal.WithLabelValues(feed).Inc()
}

func IncSignal(action string) {
	Init()
	signalsTotal.WithLabelValues(action).Inc()
}

func IncDelivery(outcome string) {
	Init()
	deliveriesTotal.WithLabelValues(outcome).Inc()
}

func IncStorageError(store string) {
	Init()
	storageErrorsTotal.WithLabelValues(store).Inc()
}

// SetHeartbeat records the heartbeat age and stall state.
func SetHeartbeat(ageSeconds float64, isStalled bool) {
	Init()
	heartbeatAge.Set(ageSeconds)
	if isStalled {
		stalled.Set(1)
	} else {
		stalled.Set(0)
	}
}
