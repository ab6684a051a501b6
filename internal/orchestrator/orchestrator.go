package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/doxyhook/internal/buildsys"
	"git.home.luguber.info/inful/doxyhook/internal/config"
	ferrors "git.home.luguber.info/inful/doxyhook/internal/foundation/errors"
	"git.home.luguber.info/inful/doxyhook/internal/fsops"
	"git.home.luguber.info/inful/doxyhook/internal/gitinfo"
	"git.home.luguber.info/inful/doxyhook/internal/logfields"
	"git.home.luguber.info/inful/doxyhook/internal/manifest"
	"git.home.luguber.info/inful/doxyhook/internal/metrics"
	"git.home.luguber.info/inful/doxyhook/internal/retry"
	"git.home.luguber.info/inful/doxyhook/internal/version"
)

// doxygenXMLDir is the XML output directory Doxygen writes next to html/.
const doxygenXMLDir = "xml"

// Orchestrator runs the hosted hook and the local workflow for one configuration.
type Orchestrator struct {
	cfg      *config.Config
	runner   buildsys.Runner
	fs       fsops.FS
	recorder metrics.Recorder
	retry    retry.Policy
	readHead func(dir string) (gitinfo.Head, error)
}

// New returns an orchestrator using the host filesystem and no metrics.
func New(cfg *config.Config, runner buildsys.Runner) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		runner:   runner,
		fs:       fsops.OS{},
		recorder: metrics.NoopRecorder{},
		retry:    retry.FromConfig(cfg.Failure.Retry),
		readHead: gitinfo.ReadHead,
	}
}

// WithRecorder attaches a metrics recorder.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r != nil {
		o.recorder = r
	}
	return o
}

// WithFS swaps the filesystem implementation.
func (o *Orchestrator) WithFS(fs fsops.FS) *Orchestrator {
	if fs != nil {
		o.fs = fs
	}
	return o
}

// Prepare is the hosted-build hook. When the hosted flag is off, or the
// output directory already exists, it returns a skipped report without
// touching the filesystem or spawning a process.
func (o *Orchestrator) Prepare(ctx context.Context) (Report, error) {
	start := time.Now()
	rs := o.newRunState(ModeHosted)
	report := &Report{RunID: rs.RunID, Mode: ModeHosted, OutputDir: o.cfg.TargetDir()}
	log := slog.With(logfields.RunID(rs.RunID), logfields.Mode(string(ModeHosted)))

	if !o.cfg.IsHosted() {
		log.Info("Hosted build flag not set; nothing to prepare",
			slog.String("variable", o.cfg.Env.Variable),
			slog.String("value", o.cfg.Env.Value),
			slog.Bool("set", o.cfg.Env.Set))
		o.skip(report, SkipNotHosted, start)
		return *report, nil
	}

	exists, err := o.fs.Exists(report.OutputDir)
	if err != nil {
		return *report, ferrors.FileSystemError("failed to inspect output directory").
			WithCause(err).
			WithContext("path", report.OutputDir).
			Build()
	}
	if exists {
		log.Info("Output directory already present; skipping build", logfields.Path(report.OutputDir))
		o.skip(report, SkipOutputExists, start)
		return *report, nil
	}

	pipeline, err := NewPipeline(
		newConfigureStage(StageConfigure, o.cfg.CMake.SourceDir, o.cfg.CMake.BuildDir),
		newBuildStage(StageBuild, StageConfigure, o.cfg.CMake.BuildDir),
		newEnsureOutputStage(StageBuild),
		newRelocateStage(),
	)
	if err != nil {
		return *report, ferrors.InternalError("invalid stage pipeline").WithCause(err).Build()
	}

	log.Info("Preparing API reference HTML", logfields.Path(report.OutputDir))
	err = o.execute(ctx, pipeline, rs, report, o.cfg.Failure.Policy != config.FailContinue, start)
	return *report, err
}

// Local reproduces the developer workflow: configure and build into a
// separate build tree, then copy the XML and HTML output into place,
// replacing whatever was there. It always stops at the first failure.
func (o *Orchestrator) Local(ctx context.Context) (Report, error) {
	start := time.Now()
	rs := o.newRunState(ModeLocal)
	report := &Report{RunID: rs.RunID, Mode: ModeLocal, OutputDir: o.cfg.TargetDir()}

	docs := o.cfg.Resolve(filepath.Join(o.cfg.Local.BuildDir, o.cfg.Local.DocsSubdir))
	htmlName := filepath.Base(o.cfg.Output.GeneratedHTML)

	pipeline, err := NewPipeline(
		newConfigureStage(StageLocalConfigure, o.cfg.CMake.SourceDir, o.cfg.Local.BuildDir),
		newBuildStage(StageLocalBuild, StageLocalConfigure, o.cfg.Local.BuildDir),
		newCleanOutputStage(),
		newEnsureOutputStage(StageCleanOutput),
		newCopyStage(StageCopyXML, "Copy Doxygen XML next to the documentation sources",
			filepath.Join(docs, doxygenXMLDir), o.cfg.Resolve(o.cfg.Local.XMLDir)),
		newCopyStage(StageCopyHTML, "Copy Doxygen HTML into the static output directory",
			filepath.Join(docs, htmlName), report.OutputDir),
	)
	if err != nil {
		return *report, ferrors.InternalError("invalid stage pipeline").WithCause(err).Build()
	}

	slog.Info("Running local documentation workflow",
		logfields.RunID(rs.RunID),
		logfields.Path(o.cfg.Resolve(o.cfg.Local.BuildDir)))
	err = o.execute(ctx, pipeline, rs, report, true, start)
	return *report, err
}

func (o *Orchestrator) newRunState(mode Mode) *RunState {
	return &RunState{
		RunID:    uuid.NewString(),
		Mode:     mode,
		Config:   o.cfg,
		Runner:   o.runner,
		FS:       o.fs,
		Retry:    o.retry,
		Recorder: o.recorder,
	}
}

func (o *Orchestrator) skip(report *Report, reason SkipReason, start time.Time) {
	report.SkipReason = reason
	report.Outcome = metrics.OutcomeSkipped
	report.Duration = time.Since(start)
	o.recorder.IncRunOutcome(string(report.Mode), metrics.OutcomeSkipped)
}

type loggingStage interface {
	LogStageStart()
	LogStageSuccess()
	LogStageFailure(err error)
	LogStageDegraded(err error)
}

// execute runs the pipeline in order. With failFast the first failing stage
// ends the run and its classified error is returned; otherwise failures are
// recorded and the run finishes as degraded with a nil error. Cancellation
// always ends the run.
func (o *Orchestrator) execute(ctx context.Context, p *Pipeline, rs *RunState, report *Report, failFast bool, start time.Time) error {
	degraded := false
	for _, st := range p.Stages() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err := ferrors.CanceledError("run canceled").
				WithCause(ctxErr).
				WithContext("step", string(st.Name())).
				Build()
			o.finish(report, metrics.OutcomeCanceled, start)
			return err
		}

		logger, _ := st.(loggingStage)
		if logger != nil {
			logger.LogStageStart()
		}
		stepStart := time.Now()
		exec := st.Execute(ctx, rs)
		step := StepReport{
			Name:     st.Name(),
			Result:   exec.Result,
			Attempts: exec.Attempts,
			Err:      exec.Err,
			Duration: time.Since(stepStart),
			Status:   metrics.ResultSuccess,
		}

		if exec.IsSuccess() {
			report.Steps = append(report.Steps, step)
			o.recordStep(step)
			if logger != nil {
				logger.LogStageSuccess()
			}
			continue
		}

		if ferrors.HasCategory(exec.Err, ferrors.CategoryCanceled) {
			step.Status = metrics.ResultCanceled
			report.Steps = append(report.Steps, step)
			o.recordStep(step)
			o.finish(report, metrics.OutcomeCanceled, start)
			return exec.Err
		}

		step.Status = metrics.ResultFailed
		report.Steps = append(report.Steps, step)
		o.recordStep(step)
		if failFast {
			if logger != nil {
				logger.LogStageFailure(exec.Err)
			}
			o.finish(report, metrics.OutcomeFailed, start)
			return exec.Err
		}
		if logger != nil {
			logger.LogStageDegraded(exec.Err)
		}
		degraded = true
	}

	if degraded {
		o.finish(report, metrics.OutcomeDegraded, start)
		return nil
	}
	o.finish(report, metrics.OutcomeSuccess, start)
	o.writeManifest(report, start)
	return nil
}

func (o *Orchestrator) recordStep(step StepReport) {
	o.recorder.ObserveStepDuration(string(step.Name), step.Duration)
	o.recorder.IncStepResult(string(step.Name), step.Status)
}

func (o *Orchestrator) finish(report *Report, outcome metrics.OutcomeLabel, start time.Time) {
	report.Outcome = outcome
	report.Duration = time.Since(start)
	o.recorder.ObserveRunDuration(string(report.Mode), report.Duration)
	o.recorder.IncRunOutcome(string(report.Mode), outcome)

	level := slog.LevelInfo
	if outcome != metrics.OutcomeSuccess {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "Run finished",
		logfields.RunID(report.RunID),
		logfields.Mode(string(report.Mode)),
		logfields.Outcome(string(outcome)),
		logfields.DurationMS(float64(report.Duration.Milliseconds())),
		slog.Int("failed_steps", len(report.Failures())))
}

// writeManifest records a successful run. Failures are logged, never returned.
func (o *Orchestrator) writeManifest(report *Report, start time.Time) {
	if o.cfg.Manifest.Disabled {
		return
	}
	path := o.cfg.Resolve(o.cfg.Manifest.Path)
	m := o.buildManifest(report, start)
	if err := manifest.Write(path, m); err != nil {
		slog.Warn("Failed to write run manifest", logfields.Path(path), logfields.Error(err))
		return
	}
	slog.Debug("Wrote run manifest", logfields.Path(path), logfields.RunID(report.RunID))
}

func (o *Orchestrator) buildManifest(report *Report, start time.Time) *manifest.RunManifest {
	sourceDir := o.cfg.Resolve(o.cfg.CMake.SourceDir)
	m := &manifest.RunManifest{
		ID:         report.RunID,
		Mode:       string(report.Mode),
		Project:    o.cfg.Project,
		Timestamp:  start.UTC(),
		Source:     manifest.Source{Dir: sourceDir},
		OutputDir:  report.OutputDir,
		Outcome:    string(report.Outcome),
		DurationMS: report.Duration.Milliseconds(),
		Version:    version.Version,
	}
	if head, err := o.readHead(sourceDir); err == nil {
		m.Source.Commit = head.Commit
		m.Source.Branch = head.Branch
	} else if !errors.Is(err, gitinfo.ErrNotRepository) {
		slog.Debug("Could not read source HEAD", logfields.Path(sourceDir), logfields.Error(err))
	}
	for _, s := range report.Steps {
		rec := manifest.StepRecord{
			Name:       string(s.Name),
			Result:     string(s.Status),
			DurationMS: s.Duration.Milliseconds(),
		}
		if s.Result != nil {
			code := s.Result.ExitCode
			rec.Command = s.Result.Command.String()
			rec.ExitCode = &code
		}
		if s.Err != nil {
			rec.Error = s.Err.Error()
		}
		m.Steps = append(m.Steps, rec)
	}
	if hash, err := m.InputsHash(); err == nil {
		m.Inputs = hash
	}
	return m
}
