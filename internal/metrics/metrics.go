// Package metrics provides Prometheus metrics for the chat service and HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of kotae. Each instance owns its
// registry, so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	// Chat metrics
	ChatRequestsTotal  *prometheus.CounterVec
	MatchScore         prometheus.Histogram
	MatchDuration      prometheus.Histogram
	CorpusSize         prometheus.Gauge
	InquiriesTotal     prometheus.Counter
	CorpusReloadsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DbSizeBytes prometheus.Gauge
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.ChatRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kotae_chat_requests_total",
			Help: "Total number of chat turns by outcome",
		},
		[]string{"outcome"},
	)

	m.MatchScore = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kotae_match_score",
			Help:    "Score of the best FAQ candidate per answered turn",
			Buckets: []float64{60, 70, 80, 85, 100, 120, 150, 200},
		},
	)

	m.MatchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kotae_match_duration_seconds",
			Help:    "Duration of ranking the corpus for one question",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.CorpusSize = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "kotae_corpus_size",
			Help: "Number of active FAQs in the matcher corpus",
		},
	)

	m.InquiriesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "kotae_inquiries_total",
			Help: "Total number of contact inquiries submitted",
		},
	)

	m.CorpusReloadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kotae_corpus_reloads_total",
			Help: "Total number of corpus reloads",
		},
		[]string{"status"},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kotae_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kotae_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.DbSizeBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "kotae_db_size_bytes",
			Help: "Current database size in bytes",
		},
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordChat records one chat turn. score is only observed for turns that
// produced a candidate.
func (m *Metrics) RecordChat(outcome string, score int, duration time.Duration) {
	m.ChatRequestsTotal.WithLabelValues(outcome).Inc()
	m.MatchDuration.Observe(duration.Seconds())
	if score > 0 {
		m.MatchScore.Observe(float64(score))
	}
}

// RecordReload records a corpus reload and the resulting corpus size.
func (m *Metrics) RecordReload(size int, err error) {
	if err != nil {
		m.CorpusReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.CorpusReloadsTotal.WithLabelValues("success").Inc()
	m.CorpusSize.Set(float64(size))
}

// RecordHTTPRequest records an HTTP request by route pattern and status code.
func (m *Metrics) RecordHTTPRequest(route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
