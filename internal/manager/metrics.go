package manager

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK      = "ok"
	outcomeBusy    = "busy"
	outcomeFailed  = "failed"
	outcomeTimeout = "timeout"
)

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koboldd",
			Subsystem: "generation",
			Name:      "total",
			Help:      "Generation requests by outcome (ok, busy, failed, timeout)",
		},
		[]string{"outcome"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "koboldd",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Wall time of admitted generations in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	generationBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "koboldd",
			Subsystem: "generation",
			Name:      "busy",
			Help:      "1 while a generation is in flight",
		},
	)
)

func init() {
	prometheus.MustRegister(generationsTotal, generationDuration, generationBusy)
}
