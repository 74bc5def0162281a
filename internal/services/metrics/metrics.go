package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "city_data_reporter"

// Metrics holds the per-run counters of the reporter. Each run owns a
// private registry that can be dumped in the textfile collector format.
type Metrics struct {
	reg *prometheus.Registry

	FetchTotal    *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	RowsAppended  prometheus.Counter
	RowsInFile    prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,

		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weather_fetch_total",
				Help:      "Weather provider requests by outcome",
			},
			[]string{"outcome"},
		),

		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "weather_fetch_duration_seconds",
				Help:      "Latency of weather provider requests",
				Buckets:   prometheus.DefBuckets,
			},
		),

		RowsAppended: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_appended_total",
				Help:      "Rows appended to the CSV file",
			},
		),

		RowsInFile: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rows_in_file",
				Help:      "Rows found in the CSV file after the last append",
			},
		),
	}

	reg.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.RowsAppended,
		m.RowsInFile,
	)

	return m
}

func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	m.FetchTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveAppend() {
	m.RowsAppended.Inc()
}

func (m *Metrics) SetRowsInFile(n int) {
	m.RowsInFile.Set(float64(n))
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// WriteTextfile dumps the registry for the node exporter textfile
// collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
