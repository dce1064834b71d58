package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports per-window readings
type Metrics struct {
	index       prometheus.Gauge
	status      *prometheus.GaugeVec
	windows     prometheus.Counter
	anomalies   prometheus.Counter
	evalSeconds prometheus.Histogram
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetrics creates the evaluator metrics and registers them on reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		index: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stability_window_index",
			Help: "Mean predicted Stability Index of the latest window.",
		}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stability_window_status",
			Help: "1 for the status of the latest window, 0 otherwise.",
		}, []string{"status"}),
		windows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stability_windows_total",
			Help: "Windows evaluated.",
		}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stability_prediction_anomalies_total",
			Help: "Predictions outside [0,1].",
		}),
		evalSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stability_window_eval_seconds",
			Help:    "Time to evaluate one window.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stability_score_cache_hits_total",
			Help: "Windows served from the score cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stability_score_cache_misses_total",
			Help: "Windows predicted by the model.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.index,
			m.status,
			m.windows,
			m.anomalies,
			m.evalSeconds,
			m.cacheHits,
			m.cacheMisses,
		)
	}

	return m
}

func (m *Metrics) observe(r WindowResult, seconds float64, cached bool) {
	if m == nil {
		return
	}
	m.index.Set(r.MeanIndex)
	for _, s := range Statuses {
		v := 0.0
		if s == r.Status {
			v = 1
		}
		m.status.WithLabelValues(s.String()).Set(v)
	}
	m.windows.Inc()
	m.anomalies.Add(float64(len(r.Anomalies)))
	m.evalSeconds.Observe(seconds)
	if cached {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
