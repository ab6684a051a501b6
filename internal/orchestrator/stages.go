package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/doxyhook/internal/buildsys"
	ferrors "git.home.luguber.info/inful/doxyhook/internal/foundation/errors"
	"git.home.luguber.info/inful/doxyhook/internal/fsops"
	"git.home.luguber.info/inful/doxyhook/internal/logfields"
)

// outputTailLines is how much process output is attached to a failure.
const outputTailLines = 20

// configureStage runs `cmake -S <source> -B <build> -D...`.
type configureStage struct {
	BaseStage
	sourceDir string
	buildDir  string
}

func newConfigureStage(name StageName, sourceDir, buildDir string) *configureStage {
	return &configureStage{
		BaseStage: NewBaseStage(StageMetadata{
			Name:        name,
			Description: "Configure the build tree with testing disabled",
		}),
		sourceDir: sourceDir,
		buildDir:  buildDir,
	}
}

func (s *configureStage) Execute(ctx context.Context, rs *RunState) StageExecution {
	req := buildsys.ConfigureRequest{
		SourceDir: s.sourceDir,
		BuildDir:  s.buildDir,
		Options:   rs.Config.CMake.Options,
	}
	return invoke(ctx, rs, s.Name(), func(ctx context.Context) (buildsys.Result, error) {
		return rs.Runner.Configure(ctx, req)
	})
}

// buildStage runs `cmake --build <build> --target <target>`.
type buildStage struct {
	BaseStage
	buildDir string
}

func newBuildStage(name StageName, after StageName, buildDir string) *buildStage {
	return &buildStage{
		BaseStage: NewBaseStage(StageMetadata{
			Name:         name,
			Description:  "Build the documentation target",
			Dependencies: []StageName{after},
		}),
		buildDir: buildDir,
	}
}

func (s *buildStage) Execute(ctx context.Context, rs *RunState) StageExecution {
	req := buildsys.BuildRequest{BuildDir: s.buildDir, Target: rs.Config.CMake.Target}
	return invoke(ctx, rs, s.Name(), func(ctx context.Context) (buildsys.Result, error) {
		return rs.Runner.Build(ctx, req)
	})
}

// invoke runs one build-system call under the retry policy and classifies
// the final failure.
func invoke(ctx context.Context, rs *RunState, step StageName, call func(context.Context) (buildsys.Result, error)) StageExecution {
	var (
		res      buildsys.Result
		attempts int
	)
	err := rs.Retry.Do(ctx, func(attempt int) error {
		attempts = attempt
		var callErr error
		res, callErr = call(ctx)
		if callErr == nil && !res.Success() {
			callErr = fmt.Errorf("%w: %s exited with code %d", buildsys.ErrExecutionFailed, res.Command.Name, res.ExitCode)
		}
		if callErr != nil {
			return classifyProcessError(ctx, step, res, callErr)
		}
		return nil
	}, func(err error) bool {
		classified, ok := ferrors.AsClassified(err)
		return ok && classified.CanRetry()
	}, func(retryNum int, err error) {
		rs.Recorder.IncStepRetry(string(step))
		slog.Warn("Retrying build system step",
			logfields.Step(string(step)),
			logfields.Attempt(retryNum+1),
			logfields.Error(err))
	})
	if err == nil {
		return ExecutionInvoked(res, attempts, nil)
	}
	// Canceled while waiting between attempts.
	if ctx.Err() != nil && !ferrors.HasCategory(err, ferrors.CategoryCanceled) && !errors.Is(err, buildsys.ErrTimeout) {
		err = ferrors.CanceledError("build interrupted").
			WithCause(err).
			WithContext("step", string(step)).
			Build()
	}
	return ExecutionInvoked(res, attempts, err)
}

func classifyProcessError(ctx context.Context, step StageName, res buildsys.Result, err error) error {
	if ctx.Err() != nil && !errors.Is(err, buildsys.ErrTimeout) {
		return ferrors.CanceledError("build interrupted").
			WithCause(err).
			WithContext("step", string(step)).
			Build()
	}
	b := ferrors.ProcessError("build system step failed").
		WithCause(err).
		WithContext("step", string(step)).
		WithContext("command", res.Command.String()).
		WithContext("exit_code", res.ExitCode)
	if errors.Is(err, buildsys.ErrBinaryNotFound) {
		b = ferrors.ProcessError("build system executable not found").
			WithCause(err).
			WithContext("step", string(step)).
			WithContext("command", res.Command.Name).
			UserAction()
	}
	if tail := res.OutputTail(outputTailLines); tail != "" {
		b = b.WithContext("output_tail", tail)
	}
	return b.Build()
}

// ensureOutputStage creates the output parent directory (html_extra).
type ensureOutputStage struct {
	BaseStage
}

func newEnsureOutputStage(after StageName) *ensureOutputStage {
	return &ensureOutputStage{BaseStage: NewBaseStage(StageMetadata{
		Name:         StageEnsureOutput,
		Description:  "Create the static output directory",
		Dependencies: []StageName{after},
	})}
}

func (s *ensureOutputStage) Execute(_ context.Context, rs *RunState) StageExecution {
	dir := rs.Config.ExtraDir()
	if err := rs.FS.EnsureDir(dir); err != nil {
		return ExecutionFailure(fsFailure("failed to create output directory", s.Name(), err).
			WithContext("path", dir).
			Build())
	}
	return ExecutionSuccess()
}

// relocateStage moves the generated HTML into the output directory.
type relocateStage struct {
	BaseStage
}

func newRelocateStage() *relocateStage {
	return &relocateStage{BaseStage: NewBaseStage(StageMetadata{
		Name:         StageRelocate,
		Description:  "Move generated HTML under the static output directory",
		Dependencies: []StageName{StageBuild, StageEnsureOutput},
	})}
}

func (s *relocateStage) Execute(_ context.Context, rs *RunState) StageExecution {
	src, dst := rs.Config.GeneratedHTMLDir(), rs.Config.TargetDir()
	if err := rs.FS.Move(src, dst); err != nil {
		return ExecutionFailure(fsFailure("failed to move generated HTML", s.Name(), err).
			WithContext("source", src).
			WithContext("target", dst).
			Build())
	}
	slog.Info("Relocated generated HTML", logfields.Source(src), logfields.Target(dst))
	return ExecutionSuccess()
}

// cleanOutputStage removes the whole output directory ahead of a local copy.
type cleanOutputStage struct {
	BaseStage
}

func newCleanOutputStage() *cleanOutputStage {
	return &cleanOutputStage{BaseStage: NewBaseStage(StageMetadata{
		Name:         StageCleanOutput,
		Description:  "Remove the previous static output directory",
		Dependencies: []StageName{StageLocalBuild},
	})}
}

func (s *cleanOutputStage) Execute(_ context.Context, rs *RunState) StageExecution {
	dir := rs.Config.ExtraDir()
	if err := rs.FS.RemoveAll(dir); err != nil {
		return ExecutionFailure(fsFailure("failed to remove output directory", s.Name(), err).
			WithContext("path", dir).
			Build())
	}
	return ExecutionSuccess()
}

// copyStage copies a directory out of the local build tree, replacing the destination.
type copyStage struct {
	BaseStage
	src string
	dst string
}

func newCopyStage(name StageName, description, src, dst string) *copyStage {
	return &copyStage{
		BaseStage: NewBaseStage(StageMetadata{
			Name:         name,
			Description:  description,
			Dependencies: []StageName{StageEnsureOutput},
		}),
		src: src,
		dst: dst,
	}
}

func (s *copyStage) Execute(_ context.Context, rs *RunState) StageExecution {
	if err := rs.FS.Replace(s.src, s.dst); err != nil {
		return ExecutionFailure(fsFailure("failed to copy build output", s.Name(), err).
			WithContext("source", s.src).
			WithContext("target", s.dst).
			Build())
	}
	slog.Info("Copied build output", logfields.Source(s.src), logfields.Target(s.dst))
	return ExecutionSuccess()
}

func fsFailure(message string, step StageName, err error) *ferrors.ErrorBuilder {
	b := ferrors.FileSystemError(message).
		WithCause(err).
		WithContext("step", string(step))
	if errors.Is(err, fsops.ErrSourceMissing) || errors.Is(err, fsops.ErrDestinationExists) {
		b = b.UserAction()
	}
	return b
}
