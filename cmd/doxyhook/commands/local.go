package commands

import "log/slog"

// LocalCmd implements the 'local' command.
type LocalCmd struct {
	Quiet bool `short:"q" help:"Do not stream cmake output to stderr"`
}

func (l *LocalCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	env := root.newRunEnv(cfg, streamTarget(l.Quiet))
	defer env.flushMetrics()

	report, err := env.orch.Local(ctx)
	if err != nil {
		return err
	}
	logReport(slog.Default(), report)
	return nil
}
