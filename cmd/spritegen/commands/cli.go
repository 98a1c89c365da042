package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/spritegen/internal/foundation/normalization"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file (default: spritegen.yaml or package.json in --cwd)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Build every configured sheet once (the default command)"`
	Watch WatchCmd `cmd:"" help:"Build every sheet, then rebuild sheets whose sources change"`
	Init  InitCmd  `cmd:"" help:"Write an example spritegen.yaml"`
}

// AfterApply configures logging once, before any command runs.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honors --verbose first, then SPRITEGEN_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if level, ok := logLevels.Lookup(os.Getenv("SPRITEGEN_LOG_LEVEL")); ok {
		return level
	}
	return slog.LevelInfo
}

var logLevels = normalization.NewEnum("log level", map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
})
