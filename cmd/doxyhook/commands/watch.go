package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/doxyhook/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Interval  time.Duration `help:"Also rebuild on this fixed interval (0 disables)"`
	NoInitial bool          `name:"no-initial" help:"Do not build once on startup"`
	Quiet     bool          `short:"q" help:"Do not stream cmake output to stderr"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	env := root.newRunEnv(cfg, streamTarget(w.Quiet))
	defer env.flushMetrics()

	paths := make([]string, 0, len(cfg.Watch.Paths))
	for _, p := range cfg.Watch.Paths {
		paths = append(paths, cfg.Resolve(p))
	}
	interval := cfg.Watch.Interval
	if w.Interval > 0 {
		interval = w.Interval
	}

	watcher, err := watch.New(watch.Options{
		Paths: paths,
		// The rebuild writes these; watching them would loop forever.
		Ignore: []string{
			cfg.ExtraDir(),
			cfg.Resolve(cfg.Local.XMLDir),
			cfg.Resolve(cfg.Local.BuildDir),
			filepath.Dir(cfg.Resolve(cfg.Manifest.Path)),
		},
		Debounce:   cfg.Watch.Debounce,
		Interval:   interval,
		RunOnStart: !w.NoInitial,
		Rebuild: func(ctx context.Context) error {
			report, err := env.orch.Local(ctx)
			if err == nil {
				logReport(slog.Default(), report)
			}
			return err
		},
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
