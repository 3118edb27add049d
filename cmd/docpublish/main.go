package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpublish/cmd/docpublish/commands"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Out: os.Stdout}

	ctx := kong.Parse(&cli,
		kong.Name("docpublish"),
		kong.Description("Build and publish API documentation sites."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global); err != nil {
		logger := global.Logger
		if logger == nil {
			logger = slog.Default()
		}
		os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, logger).Report(err))
	}
}
