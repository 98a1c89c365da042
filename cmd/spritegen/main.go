// Command spritegen builds sprite sheets and icon fonts from image sources.
package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/spritegen/cmd/spritegen/commands"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("spritegen"),
		kong.Description("Build sprite sheets and icon fonts with their stylesheets."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	err := ctx.Run(&commands.Global{Logger: slog.Default()})
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
