package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prefix = "backoffice_"

// Metrics holds the prometheus instruments for the reconciliation core.
type Metrics struct {
	registry *prometheus.Registry

	SyncRuns     *prometheus.CounterVec
	SyncReports  *prometheus.CounterVec
	SyncDuration prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "sync_runs_total",
			Help: "Synchronize calls by final status",
		}, []string{"status"}),
		SyncReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "sync_reports_total",
			Help: "Station reports touched by sync, by outcome",
		}, []string{"outcome"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "sync_duration_seconds",
			Help:    "Wall time of synchronize calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	registry.MustRegister(m.SyncRuns, m.SyncReports, m.SyncDuration)
	return m
}

// ObserveSync records one finished synchronize call.
func (m *Metrics) ObserveSync(status string, created, updated, errors int, seconds float64) {
	m.SyncRuns.WithLabelValues(status).Inc()
	m.SyncReports.WithLabelValues("created").Add(float64(created))
	m.SyncReports.WithLabelValues("updated").Add(float64(updated))
	m.SyncReports.WithLabelValues("error").Add(float64(errors))
	m.SyncDuration.Observe(seconds)
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
