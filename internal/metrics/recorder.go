// Package metrics records pipeline measurements with Prometheus.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/sediment/pkg/core"
)

const namespace = "sediment"

// PrometheusRecorder implements core.Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	outcomes      *prom.CounterVec
	stageDuration *prom.HistogramVec
	fallbacks     prom.Counter
	events        *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Processed files by outcome",
		}, []string{"outcome"}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		fallbacks: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "model_fallbacks_total",
			Help:      "Model calls replaced by the fallback text",
		}),
		events: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Files reported by the watcher",
		}, []string{"type"}),
	}
	reg.MustRegister(pr.outcomes, pr.stageDuration, pr.fallbacks, pr.events)
	return pr
}

func (p *PrometheusRecorder) IncOutcome(outcome core.Outcome) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveStage(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncFallback counts a model call that fell back. Its signature matches llm.Transformer.OnFallback.
func (p *PrometheusRecorder) IncFallback(error) {
	if p == nil || p.fallbacks == nil {
		return
	}
	p.fallbacks.Inc()
}

func (p *PrometheusRecorder) IncEvent(t core.EventType) {
	if p == nil || p.events == nil {
		return
	}
	p.events.WithLabelValues(string(t)).Inc()
}

var _ core.Recorder = (*PrometheusRecorder)(nil)
