package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCollector_RecordGeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("argen", reg, zap.NewNop())

	c.RecordGeneration("succeeded", 4, 20*time.Second)
	c.RecordGeneration("timed_out", 60, 300*time.Second)
	c.RecordGeneration("succeeded", 2, 10*time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.generationsTotal.WithLabelValues("succeeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.generationsTotal.WithLabelValues("timed_out")))
}

func TestCollector_LedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("argen", reg, zap.NewNop())

	c.RecordDebit(1, 5219)
	c.RecordDebit(1, 5218)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.creditsConsumed))
	assert.Equal(t, float64(5218), testutil.ToFloat64(c.ledgerBalance))

	c.SetLedgerBalance(5000)
	assert.Equal(t, float64(5000), testutil.ToFloat64(c.ledgerBalance))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.RecordHTTPRequest("GET", "/api/models", "200", time.Millisecond)
	c.RecordGeneration("failed", 0, 0)
	c.RecordDebit(1, 0)
	c.SetLedgerBalance(0)
	c.RecordArtifactDownload("cached")
}
