// Package metrics exposes evaluation counters over a private Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeDeterminate   = "determinate"
	OutcomeIndeterminate = "indeterminate"
	OutcomeError         = "error"
)

// Metrics holds the collectors updated by the scheduler.
type Metrics struct {
	Registry *prometheus.Registry

	evaluations   *prometheus.CounterVec
	duration      prometheus.Histogram
	freeTransfers *prometheus.GaugeVec
	lastRun       prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ftledger_evaluations_total",
			Help: "Free transfer evaluations by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ftledger_evaluation_seconds",
			Help:    "Time to gather data and replay one manager's season.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		freeTransfers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ftledger_free_transfers",
			Help: "Free transfers available for the next gameweek.",
		}, []string{"entry"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ftledger_last_run_timestamp_seconds",
			Help: "Unix time of the last completed batch.",
		}),
	}
}

// ObserveEvaluation records one manager's evaluation. freeTransfers is only
// exported for determinate outcomes.
func (m *Metrics) ObserveEvaluation(entryID int, outcome string, freeTransfers int, took time.Duration) {
	m.evaluations.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
	entry := strconv.Itoa(entryID)
	if outcome == OutcomeDeterminate {
		m.freeTransfers.WithLabelValues(entry).Set(float64(freeTransfers))
		return
	}
	m.freeTransfers.DeleteLabelValues(entry)
}

// ObserveRun marks a finished batch.
func (m *Metrics) ObserveRun(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}

// Handler returns the router serving /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	return r
}
