package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsPrefix = "jobclean_"

// Each server has its own registry so that servers (and tests) do not share counters.

type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	records    *prometheus.CounterVec
	softErrors *prometheus.CounterVec
	dropped    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "requests_total",
				Help: "Normalization requests by input kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "records_total",
				Help: "Canonical records produced",
			},
			[]string{"kind"},
		),
		softErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "soft_errors_total",
				Help: "Values that could not be interpreted and were left absent",
			},
			[]string{"kind"},
		),
		dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "dropped_steps_total",
				Help: "Job step rows dropped during normalization",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) recordOutcome(kind, outcome string) {
	m.requests.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) recordRun(kind string, records, softErrors, dropped int) {
	m.records.WithLabelValues(kind).Add(float64(records))
	m.softErrors.WithLabelValues(kind).Add(float64(softErrors))
	m.dropped.WithLabelValues(kind).Add(float64(dropped))
}
