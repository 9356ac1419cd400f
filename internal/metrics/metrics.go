// Package metrics exposes prometheus instrumentation for the blog server.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devblog"

// Metrics groups the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	renders        *prometheus.CounterVec
	filterResults  prometheus.Histogram
	themeToggles   *prometheus.CounterVec
	activeSessions prometheus.Gauge
	catalogReloads *prometheus.CounterVec
}

// New registers all collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_renders_total",
			Help:      "Rendered pages by page kind and loading state.",
		}, []string{"page", "state"}),
		filterResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_results",
			Help:      "Number of regular posts left after filtering.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		themeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "theme_toggles_total",
			Help:      "Theme toggles by resulting theme.",
		}, []string{"theme"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Live view sessions.",
		}),
		catalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Content reloads by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.renders,
		m.filterResults,
		m.themeToggles,
		m.activeSessions,
		m.catalogReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Render(page string, loading bool) {
	if m == nil {
		return
	}
	state := "ready"
	if loading {
		state = "loading"
	}
	m.renders.WithLabelValues(page, state).Inc()
}

func (m *Metrics) FilterResults(n int) {
	if m == nil {
		return
	}
	m.filterResults.Observe(float64(n))
}

func (m *Metrics) ThemeToggle(theme string) {
	if m == nil {
		return
	}
	m.themeToggles.WithLabelValues(theme).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

func (m *Metrics) CatalogReload(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.catalogReloads.WithLabelValues(result).Inc()
}
