package orchestrator

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/doxyhook/internal/buildsys"
	"git.home.luguber.info/inful/doxyhook/internal/logfields"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageConfigure    StageName = "configure"
	StageBuild        StageName = "build"
	StageEnsureOutput StageName = "ensure_output"
	StageRelocate     StageName = "relocate"

	// Local workflow stages.
	StageLocalConfigure StageName = "local_configure"
	StageLocalBuild     StageName = "local_build"
	StageCleanOutput    StageName = "clean_output"
	StageCopyXML        StageName = "copy_xml"
	StageCopyHTML       StageName = "copy_html"
)

// StageExecution is the structured result of one stage.
type StageExecution struct {
	Err error
	// Result and Attempts are set by stages that invoke the build system.
	Result   *buildsys.Result
	Attempts int
}

// ExecutionSuccess returns a successful stage execution result.
func ExecutionSuccess() StageExecution {
	return StageExecution{}
}

// ExecutionFailure returns a failed stage execution result.
func ExecutionFailure(err error) StageExecution {
	return StageExecution{Err: err}
}

// ExecutionInvoked returns the result of a build-system stage.
func ExecutionInvoked(res buildsys.Result, attempts int, err error) StageExecution {
	return StageExecution{Err: err, Result: &res, Attempts: attempts}
}

// IsSuccess returns true if the stage completed without error.
func (r StageExecution) IsSuccess() bool {
	return r.Err == nil
}

// Stage is a single unit of pipeline work.
type Stage interface {
	Name() StageName
	Description() string
	// Dependencies names stages that must be registered ahead of this one.
	Dependencies() []StageName
	Execute(ctx context.Context, rs *RunState) StageExecution
}

// StageMetadata describes a stage.
type StageMetadata struct {
	Name         StageName
	Description  string
	Dependencies []StageName
}

// BaseStage provides the common Stage accessors and logging.
type BaseStage struct {
	metadata StageMetadata
}

// NewBaseStage creates a base stage with the given metadata.
func NewBaseStage(metadata StageMetadata) BaseStage {
	return BaseStage{metadata: metadata}
}

// Name returns the stage name.
func (s BaseStage) Name() StageName {
	return s.metadata.Name
}

// Description returns the stage description.
func (s BaseStage) Description() string {
	return s.metadata.Description
}

// Dependencies returns the stage dependencies.
func (s BaseStage) Dependencies() []StageName {
	return s.metadata.Dependencies
}

// LogStageStart logs the start of a stage execution.
func (s BaseStage) LogStageStart() {
	slog.Info("Starting stage", logfields.Step(string(s.Name())))
}

// LogStageSuccess logs successful completion of a stage.
func (s BaseStage) LogStageSuccess() {
	slog.Info("Stage completed successfully", logfields.Step(string(s.Name())))
}

// LogStageFailure logs failure of a stage.
func (s BaseStage) LogStageFailure(err error) {
	slog.Error("Stage failed", logfields.Step(string(s.Name())), logfields.Error(err))
}

// LogStageDegraded logs a failure the run continues past.
func (s BaseStage) LogStageDegraded(err error) {
	slog.Warn("Stage failed; continuing", logfields.Step(string(s.Name())), logfields.Error(err))
}

// Pipeline is an ordered list of stages whose dependencies are checked on construction.
type Pipeline struct {
	stages []Stage
}

// NewPipeline validates that every dependency appears earlier in the list.
func NewPipeline(stages ...Stage) (*Pipeline, error) {
	seen := make(map[StageName]bool, len(stages))
	for _, st := range stages {
		if seen[st.Name()] {
			return nil, &DuplicateStageError{Stage: st.Name()}
		}
		for _, dep := range st.Dependencies() {
			if !seen[dep] {
				return nil, &DependencyError{Stage: st.Name(), Dependency: dep}
			}
		}
		seen[st.Name()] = true
	}
	return &Pipeline{stages: stages}, nil
}

// Stages returns the stages in execution order.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// DependencyError represents a stage ordered before one of its dependencies.
type DependencyError struct {
	Stage      StageName
	Dependency StageName
}

func (e *DependencyError) Error() string {
	return "stage " + string(e.Stage) + " depends on " + string(e.Dependency) + ", which does not run before it"
}

// DuplicateStageError represents a stage registered twice.
type DuplicateStageError struct {
	Stage StageName
}

func (e *DuplicateStageError) Error() string {
	return "stage " + string(e.Stage) + " registered twice"
}
