// internal/poller/metrics.go
package poller

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	polls    prometheus.Counter
	misses   *prometheus.CounterVec
	readings prometheus.Counter
	faults   *prometheus.CounterVec
	weight   prometheus.Gauge
	state    prometheus.Gauge
	response prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loadcell_polls_total",
			Help: "Read commands sent to the transmitter.",
		}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loadcell_poll_misses_total",
			Help: "Ticks that produced no reading, by cause.",
		}, []string{"reason"}),
		readings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loadcell_readings_total",
			Help: "Successfully decoded weight readings.",
		}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loadcell_faults_total",
			Help: "Sessions ended by a fault, by kind.",
		}, []string{"kind"}),
		weight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadcell_weight",
			Help: "Last decoded weight value.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadcell_connection_state",
			Help: "0 disconnected, 1 connecting, 2 polling, 3 faulted.",
		}),
		response: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "loadcell_response_seconds",
			Help:    "Time from command write to a complete response.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.polls, m.misses, m.readings, m.faults, m.weight, m.state, m.response)
	}
	return m
}
