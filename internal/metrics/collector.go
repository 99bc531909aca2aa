// Package metrics provides internal Prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector registers and updates the service metrics.
type Collector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Generation metrics
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	pollChecks         prometheus.Histogram

	// Ledger metrics
	creditsConsumed prometheus.Counter
	ledgerBalance   prometheus.Gauge

	// Artifact metrics
	artifactDownloads *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector and registers its metrics on reg. Pass a
// fresh registry per collector; registering twice on one registry panics.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := func(c prometheus.Collector) prometheus.Collector {
		reg.MustRegister(c)
		return c
	}

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)).(*prometheus.CounterVec)

	c.httpRequestDuration = factory(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)).(*prometheus.HistogramVec)

	c.generationsTotal = factory(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generation attempts by terminal state",
		},
		[]string{"state"},
	)).(*prometheus.CounterVec)

	c.generationDuration = factory(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end generation duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"state"},
	)).(*prometheus.HistogramVec)

	c.pollChecks = factory(prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_checks",
			Help:      "Number of status checks per generation",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60},
		},
	)).(prometheus.Histogram)

	c.creditsConsumed = factory(prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_consumed_total",
			Help:      "Total local credits debited",
		},
	)).(prometheus.Counter)

	c.ledgerBalance = factory(prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_free_balance",
			Help:      "Current local credit balance",
		},
	)).(prometheus.Gauge)

	c.artifactDownloads = factory(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_downloads_total",
			Help:      "Artifact downloads by outcome",
		},
		[]string{"outcome"},
	)).(*prometheus.CounterVec)

	return c
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGeneration records one generation attempt.
func (c *Collector) RecordGeneration(state string, checks int, duration time.Duration) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(state).Inc()
	c.generationDuration.WithLabelValues(state).Observe(duration.Seconds())
	if checks > 0 {
		c.pollChecks.Observe(float64(checks))
	}
}

// RecordDebit records a successful ledger debit and the resulting balance.
func (c *Collector) RecordDebit(amount, balance int64) {
	if c == nil {
		return
	}
	c.creditsConsumed.Add(float64(amount))
	c.ledgerBalance.Set(float64(balance))
}

// SetLedgerBalance updates the balance gauge without a debit.
func (c *Collector) SetLedgerBalance(balance int64) {
	if c == nil {
		return
	}
	c.ledgerBalance.Set(float64(balance))
}

// RecordArtifactDownload records one artifact download attempt.
func (c *Collector) RecordArtifactDownload(outcome string) {
	if c == nil {
		return
	}
	c.artifactDownloads.WithLabelValues(outcome).Inc()
}
