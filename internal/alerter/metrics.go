package alerter

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the alert pipeline.
type Metrics struct {
	TicksTotal      *prometheus.CounterVec
	TickDuration    prometheus.Histogram
	TargetsSelected prometheus.Histogram
	DispatchesTotal *prometheus.CounterVec
	LastSeenMag     prometheus.Gauge
	LastAlertedMag  prometheus.Gauge
}

// NewMetrics registers and returns alerter metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "temblor_ticks_total",
			Help: "Total engine ticks by outcome.",
		}, []string{"outcome"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "temblor_tick_duration_seconds",
			Help:    "Duration of engine ticks in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}),
		TargetsSelected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "temblor_targets_selected",
			Help:    "Targets selected per alerting tick.",
			Buckets: prometheus.LinearBuckets(0, 1, 16), // 0 .. 15
		}),
		DispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "temblor_dispatches_total",
			Help: "Total dispatch attempts by channel and status.",
		}, []string{"channel", "status"}),
		LastSeenMag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "temblor_last_seen_magnitude",
			Help: "Magnitude of the most recently observed feed event.",
		}),
		LastAlertedMag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "temblor_last_alerted_magnitude",
			Help: "Magnitude of the most recently committed alert.",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.TickDuration,
		m.TargetsSelected,
		m.DispatchesTotal,
		m.LastSeenMag,
		m.LastAlertedMag,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnTick: func(outcome string, duration float64, selected int) {
			m.TicksTotal.WithLabelValues(outcome).Inc()
			m.TickDuration.Observe(duration)
			if outcome == OutcomeAlerted || outcome == OutcomeDispatchFailed {
				m.TargetsSelected.Observe(float64(selected))
			}
		},
		OnDispatch: func(channel string, ok bool) {
			status := "success"
			if !ok {
				status = "error"
			}
			m.DispatchesTotal.WithLabelValues(channel, status).Inc()
		},
		OnMarker: func(seen, alerted *float64) {
			if seen != nil {
				m.LastSeenMag.Set(*seen)
			}
			if alerted != nil {
				m.LastAlertedMag.Set(*alerted)
			}
		},
	}
}
