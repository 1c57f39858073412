package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Flush triggers reported in shipfin_log_flushes_total.
const (
	TriggerSize     = "size"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
	TriggerClose    = "close"
)

// Metrics holds the logger's Prometheus collectors.
type Metrics struct {
	entries  *prometheus.CounterVec
	flushes  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them with reg. A nil
// registerer leaves them unregistered, which suits tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		entries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shipfin_log_entries_total",
			Help: "Audit log entries recorded, by level.",
		}, []string{"level"}),
		flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shipfin_log_flushes_total",
			Help: "Buffer flushes, by trigger.",
		}, []string{"trigger"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shipfin_log_sink_failures_total",
			Help: "Failed sink writes, by sink.",
		}, []string{"sink"}),
	}
}

// Entries exposes the per-level entry counter.
func (m *Metrics) Entries() *prometheus.CounterVec { return m.entries }

// Flushes exposes the per-trigger flush counter.
func (m *Metrics) Flushes() *prometheus.CounterVec { return m.flushes }

// SinkFailures exposes the per-sink failure counter.
func (m *Metrics) SinkFailures() *prometheus.CounterVec { return m.failures }
