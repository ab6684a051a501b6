package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/doxyhook/internal/logfields"
	"git.home.luguber.info/inful/doxyhook/internal/metrics"
	"git.home.luguber.info/inful/doxyhook/internal/orchestrator"
)

// PrepareCmd implements the 'prepare' command, the hook run by hosted builds.
type PrepareCmd struct {
	Quiet bool `short:"q" help:"Do not stream cmake output to stderr"`
}

func (p *PrepareCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	env := root.newRunEnv(cfg, streamTarget(p.Quiet))
	defer env.flushMetrics()

	report, err := env.orch.Prepare(ctx)
	if err != nil {
		return err
	}
	logReport(slog.Default(), report)
	return nil
}

func logReport(logger *slog.Logger, report orchestrator.Report) {
	if report.Skipped() {
		logger.Debug("Nothing to do", logfields.Reason(string(report.SkipReason)))
		return
	}
	for _, f := range report.Failures() {
		logger.Warn("Step failed", logfields.Step(string(f.Name)), logfields.Error(f.Err))
	}
	attrs := []any{
		logfields.Path(report.OutputDir),
		logfields.Outcome(string(report.Outcome)),
		logfields.RunID(report.RunID),
	}
	if report.Outcome != metrics.OutcomeSuccess {
		logger.Warn("Doxygen HTML incomplete", attrs...)
		return
	}
	logger.Info("Doxygen HTML ready", attrs...)
}
