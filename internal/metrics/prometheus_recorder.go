package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "doxyhook"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stepDuration *prom.HistogramVec
	stepResults  *prom.CounterVec
	runDuration  *prom.HistogramVec
	runOutcomes  *prom.CounterVec
	stepRetries  *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	// cmake doc builds run from seconds to tens of minutes.
	buckets := prom.ExponentialBuckets(0.5, 2, 12)
	pr := &PrometheusRecorder{
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of individual orchestration steps",
			Buckets:   buckets,
		}, []string{"step"}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"step", "result"}),
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration by mode",
			Buckets:   buckets,
		}, []string{"mode"}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by mode and final status",
		}, []string{"mode", "outcome"}),
		stepRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "step_retries_total",
			Help:      "Retries of external process steps",
		}, []string{"step"}),
	}
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.runDuration, pr.runOutcomes, pr.stepRetries)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(mode string, outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(mode, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncStepRetry(step string) {
	if p == nil {
		return
	}
	p.stepRetries.WithLabelValues(step).Inc()
}
