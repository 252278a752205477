package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Observer matches pipeline.Observer without importing it.
type Observer interface {
	Observe(stage string, d time.Duration)
}

// LogObserver writes one debug line per stage sample.
type LogObserver struct {
	Logger zerolog.Logger
}

func (o LogObserver) Observe(stage string, d time.Duration) {
	o.Logger.Debug().Str("stage", stage).Dur("took", d).Msg("stage finished")
}

// Multi fans a sample out to several observers.
type Multi []Observer

func (m Multi) Observe(stage string, d time.Duration) {
	for _, o := range m {
		o.Observe(stage, d)
	}
}

// Prometheus exposes stage durations and write-back failures.
type Prometheus struct {
	registry  *prometheus.Registry
	stages    *prometheus.HistogramVec
	failures  prometheus.Counter
	responses *prometheus.CounterVec
}

// NewPrometheus registers the collectors on a private registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imgtransform",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each transformation stage.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imgtransform",
			Name:      "writeback_failures_total",
			Help:      "Write-back PUTs that failed and were dropped.",
		}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imgtransform",
			Name:      "responses_total",
			Help:      "Responses by status code.",
		}, []string{"code"}),
	}
	p.registry.MustRegister(p.stages, p.failures, p.responses)
	p.registry.MustRegister(collectors.NewGoCollector())
	return p
}

func (p *Prometheus) Observe(stage string, d time.Duration) {
	p.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// WritebackFailed matches writeback.Config.OnFailure.
func (p *Prometheus) WritebackFailed(string, error) {
	p.failures.Inc()
}

// Response counts one response with the given status code.
func (p *Prometheus) Response(code int) {
	p.responses.WithLabelValues(strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
