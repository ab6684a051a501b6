package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/doxyhook/cmd/doxyhook/commands"
	ferrors "git.home.luguber.info/inful/doxyhook/internal/foundation/errors"
	"git.home.luguber.info/inful/doxyhook/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("doxyhook"),
		kong.Description("Prepare pre-rendered Doxygen HTML for a documentation build."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(&cli),
	)
	if err := ctx.Run(&commands.Global{Logger: slog.Default()}); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
