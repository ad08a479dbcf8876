// Package metrics exposes the scanner's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the scan loop.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal       prometheus.Counter
	FetchErrorsTotal *prometheus.CounterVec // labels: instrument
	SignalsTotal     *prometheus.CounterVec // labels: instrument, direction
	RejectionsTotal  *prometheus.CounterVec // labels: reason
	CircuitOpen      prometheus.Gauge       // 0=closed, 1=open
	LossStreak       prometheus.Gauge
	ScanDuration     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_scans_total",
			Help: "Completed scan sweeps.",
		}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_fetch_errors_total",
			Help: "Candle fetches that failed or timed out.",
		}, []string{"instrument"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_signals_total",
			Help: "Signals accepted and emitted.",
		}, []string{"instrument", "direction"}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_rejections_total",
			Help: "Decisions rejected by the pacing governor, by reason.",
		}, []string{"reason"}),
		CircuitOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_circuit_open",
			Help: "Whether the loss-streak circuit breaker is open.",
		}),
		LossStreak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_loss_streak",
			Help: "Current consecutive loss count.",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_scan_duration_seconds",
			Help:    "Duration of one scan sweep.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.ScansTotal, m.FetchErrorsTotal, m.SignalsTotal,
		m.RejectionsTotal, m.CircuitOpen, m.LossStreak, m.ScanDuration,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
