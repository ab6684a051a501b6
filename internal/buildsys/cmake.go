package buildsys

import (
	"context"
	"sort"
	"time"
)

// ConfigureRequest describes a configure step (`cmake -S src -B build -DK=V`).
type ConfigureRequest struct {
	SourceDir string
	BuildDir  string
	Options   map[string]string
}

// BuildRequest describes a build step (`cmake --build build --target t`).
type BuildRequest struct {
	BuildDir string
	Target   string
}

// Runner is the build-system seam used by the orchestrator.
type Runner interface {
	Configure(ctx context.Context, req ConfigureRequest) (Result, error)
	Build(ctx context.Context, req BuildRequest) (Result, error)
}

// CMake runs the cmake CLI through an Executor.
type CMake struct {
	Binary string
	// WorkDir is the directory cmake runs in; relative -S/-B paths resolve against it.
	WorkDir string
	// Timeout bounds each invocation. Zero waits indefinitely.
	Timeout time.Duration

	exec Executor
}

// NewCMake returns a CMake runner that spawns real processes.
func NewCMake(binary, workDir string, timeout time.Duration) *CMake {
	if binary == "" {
		binary = "cmake"
	}
	return &CMake{Binary: binary, WorkDir: workDir, Timeout: timeout, exec: &ProcessExecutor{}}
}

// WithExecutor swaps the process executor (tests, streaming output).
func (c *CMake) WithExecutor(e Executor) *CMake {
	if e != nil {
		c.exec = e
	}
	return c
}

// Configure runs the configure step.
func (c *CMake) Configure(ctx context.Context, req ConfigureRequest) (Result, error) {
	return c.run(ctx, ConfigureArgs(req))
}

// Build runs the build step for a single target.
func (c *CMake) Build(ctx context.Context, req BuildRequest) (Result, error) {
	return c.run(ctx, BuildArgs(req))
}

func (c *CMake) run(ctx context.Context, args []string) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	return c.exec.Execute(ctx, Command{Name: c.Binary, Args: args, Dir: c.WorkDir})
}

// ConfigureArgs builds the configure argv. Options are emitted sorted by name
// so the command line is stable across runs.
func ConfigureArgs(req ConfigureRequest) []string {
	args := []string{"-S", req.SourceDir, "-B", req.BuildDir}
	keys := make([]string, 0, len(req.Options))
	for k := range req.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-D"+k+"="+req.Options[k])
	}
	return args
}

// BuildArgs builds the build argv.
func BuildArgs(req BuildRequest) []string {
	args := []string{"--build", req.BuildDir}
	if req.Target != "" {
		args = append(args, "--target", req.Target)
	}
	return args
}
