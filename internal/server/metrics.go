package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	evaluations prometheus.Counter
	pageCache   *prometheus.CounterVec
	reloads     *prometheus.CounterVec
	records     prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wealthtax_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wealthtax_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"route"},
		),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wealthtax_revenue_evaluations_total",
			Help: "Revenue evaluations served",
		}),
		pageCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wealthtax_widget_cache_total",
				Help: "Widget page cache lookups by result",
			},
			[]string{"result"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wealthtax_table_reloads_total",
				Help: "Comparison table reloads by result",
			},
			[]string{"result"},
		),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wealthtax_comparison_records",
			Help: "Records in the loaded comparison table",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.evaluations, m.pageCache, m.reloads, m.records,
	)
	return m
}
