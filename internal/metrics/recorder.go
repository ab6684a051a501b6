package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel enumerates final run outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeSkipped  OutcomeLabel = "skipped"
	OutcomeDegraded OutcomeLabel = "degraded" // continue policy with failed steps
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for runs and steps.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step string, result ResultLabel)
	ObserveRunDuration(mode string, d time.Duration)
	IncRunOutcome(mode string, outcome OutcomeLabel)
	IncStepRetry(step string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration) {}
func (NoopRecorder) IncStepResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)  {}
func (NoopRecorder) IncRunOutcome(string, OutcomeLabel)        {}
func (NoopRecorder) IncStepRetry(string)                       {}
