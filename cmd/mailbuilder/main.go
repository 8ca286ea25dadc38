package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mailbuilder/cmd/mailbuilder/commands"
	mberrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("mailbuilder"),
		kong.Description("Render HTML email templates with layouts, utility CSS and transformers."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, &cli)
	mberrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
