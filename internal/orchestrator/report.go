package orchestrator

import (
	"time"

	"git.home.luguber.info/inful/doxyhook/internal/buildsys"
	"git.home.luguber.info/inful/doxyhook/internal/metrics"
)

// Mode names the workflow a run executed.
type Mode string

const (
	ModeHosted Mode = "hosted"
	ModeLocal  Mode = "local"
)

// SkipReason explains why Prepare did no work.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipNotHosted    SkipReason = "not_hosted"
	SkipOutputExists SkipReason = "output_exists"
)

// StepReport records one executed stage.
type StepReport struct {
	Name StageName
	// Result is set for stages that invoked the build system.
	Result   *buildsys.Result
	Attempts int
	Status   metrics.ResultLabel
	Err      error
	Duration time.Duration
}

// Report is the typed outcome of a run.
type Report struct {
	RunID      string
	Mode       Mode
	SkipReason SkipReason
	Steps      []StepReport
	Outcome    metrics.OutcomeLabel
	OutputDir  string
	Duration   time.Duration
}

// Skipped reports whether the run returned before any stage executed.
func (r *Report) Skipped() bool {
	return r.SkipReason != SkipNone
}

// Invocations returns the build-system commands in the order they ran. A
// retried stage contributes its last attempt only.
func (r *Report) Invocations() []buildsys.Command {
	var out []buildsys.Command
	for _, s := range r.Steps {
		if s.Result != nil {
			out = append(out, s.Result.Command)
		}
	}
	return out
}

// Failures returns the stages that did not succeed.
func (r *Report) Failures() []StepReport {
	var out []StepReport
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Step returns the report for the named stage.
func (r *Report) Step(name StageName) (StepReport, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepReport{}, false
}
