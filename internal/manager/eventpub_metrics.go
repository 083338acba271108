package manager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPublisher turns lifecycle events into Prometheus series.
type MetricsPublisher struct {
	loaded       prometheus.Gauge
	loads        prometheus.Counter
	loadFailures prometheus.Counter
	evictions    *prometheus.CounterVec
	evictErrors  *prometheus.CounterVec
	loadDuration prometheus.Histogram
}

// NewMetricsPublisher creates the model lifecycle collectors and registers
// them with reg (prometheus.DefaultRegisterer when nil).
func NewMetricsPublisher(reg prometheus.Registerer) *MetricsPublisher {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &MetricsPublisher{
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "embedd",
			Subsystem: "model",
			Name:      "loaded",
			Help:      "1 when the embedding model is resident in memory",
		}),
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "model",
			Name:      "loads_total",
			Help:      "Successful model loads",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "model",
			Name:      "load_failures_total",
			Help:      "Failed model loads",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "model",
			Name:      "evictions_total",
			Help:      "Model unloads by reason",
		}, []string{"reason"}),
		evictErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "model",
			Name:      "evict_errors_total",
			Help:      "Errors swallowed while releasing the model, by stage",
		}, []string{"stage"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "embedd",
			Subsystem: "model",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading the model",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
	reg.MustRegister(p.loaded, p.loads, p.loadFailures, p.evictions, p.evictErrors, p.loadDuration)
	return p
}

func (p *MetricsPublisher) Publish(e Event) {
	switch e.Name {
	case "load_done":
		p.loaded.Set(1)
		p.loads.Inc()
		if ms, ok := e.Fields["dur_ms"].(int64); ok {
			p.loadDuration.Observe((time.Duration(ms) * time.Millisecond).Seconds())
		}
	case "load_error":
		p.loaded.Set(0)
		p.loadFailures.Inc()
	case "evict":
		p.loaded.Set(0)
		reason, _ := e.Fields["reason"].(string)
		if reason == "" {
			reason = "unspecified"
		}
		p.evictions.WithLabelValues(reason).Inc()
	case "evict_error":
		stage, _ := e.Fields["stage"].(string)
		p.evictErrors.WithLabelValues(stage).Inc()
	}
}
