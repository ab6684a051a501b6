package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/doxyhook/internal/buildsys"
	"git.home.luguber.info/inful/doxyhook/internal/config"
	ferrors "git.home.luguber.info/inful/doxyhook/internal/foundation/errors"
	"git.home.luguber.info/inful/doxyhook/internal/logfields"
	"git.home.luguber.info/inful/doxyhook/internal/metrics"
	"git.home.luguber.info/inful/doxyhook/internal/orchestrator"
)

// LogLevelEnv overrides the log level when -v is not given.
const LogLevelEnv = "DOXYHOOK_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (default: doxyhook.yaml in the working directory)"`
	WorkDir     string           `name:"workdir" short:"C" help:"Directory relative paths resolve against (default: current directory)"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics in text format to this file after the run"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Prepare PrepareCmd `cmd:"" default:"1" help:"Build and place Doxygen HTML when running in a hosted documentation build"`
	Local   LocalCmd   `cmd:"" help:"Build Doxygen output into a local build tree and copy it into place"`
	Status  StatusCmd  `cmd:"" help:"Show the hosted flag, output state and last run"`
	Watch   WatchCmd   `cmd:"" help:"Re-run the local workflow when sources change"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	} else if l, ok := ParseLogLevel(os.Getenv(LogLevelEnv)); ok {
		level = l
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ParseLogLevel maps debug|info|warn|error (any case) to a slog level.
func ParseLogLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func (c *CLI) workDir() (string, error) {
	if c.WorkDir == "" {
		return os.Getwd()
	}
	return filepath.Abs(c.WorkDir)
}

// loadConfig resolves the working directory and loads configuration,
// including the hosted-build flag.
func (c *CLI) loadConfig() (*config.Config, error) {
	wd, err := c.workDir()
	if err != nil {
		return nil, ferrors.RuntimeError("failed to resolve working directory").WithCause(err).Build()
	}
	return config.LoadWithOptions(c.Config, config.LoadOptions{WorkDir: wd})
}

// runEnv bundles an orchestrator with its metrics sink.
type runEnv struct {
	orch     *orchestrator.Orchestrator
	registry *prom.Registry
	textfile string
}

// newRunEnv wires the cmake runner, optionally streaming its output, and the
// Prometheus recorder when a metrics textfile is configured.
func (c *CLI) newRunEnv(cfg *config.Config, stream io.Writer) *runEnv {
	exec := &buildsys.ProcessExecutor{Stream: stream}
	runner := buildsys.NewCMake(cfg.CMake.Binary, cfg.WorkDir, cfg.CMake.Timeout).WithExecutor(exec)
	env := &runEnv{orch: orchestrator.New(cfg, runner)}

	textfile := c.MetricsFile
	if textfile == "" && cfg.Metrics.Textfile != "" {
		textfile = cfg.Resolve(cfg.Metrics.Textfile)
	}
	if textfile != "" {
		env.registry = prom.NewRegistry()
		env.textfile = textfile
		env.orch.WithRecorder(metrics.NewPrometheusRecorder(env.registry))
	}
	return env
}

// flushMetrics writes the metrics textfile. Failures are logged only.
func (e *runEnv) flushMetrics() {
	if e.registry == nil {
		return
	}
	if err := metrics.WriteTextfile(e.textfile, e.registry); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(e.textfile), logfields.Error(err))
		return
	}
	slog.Debug("Wrote metrics textfile", logfields.Path(e.textfile))
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func streamTarget(quiet bool) io.Writer {
	if quiet {
		return nil
	}
	return os.Stderr
}
