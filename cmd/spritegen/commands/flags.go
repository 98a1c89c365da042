package commands

import (
	"os"

	"git.home.luguber.info/inful/spritegen/internal/config"
)

// SheetFlags are the command-line overrides shared by build and watch.
type SheetFlags struct {
	Src     string `arg:"" optional:"" help:"Source glob, e.g. 'assets/icons/*.png' (quote it)"`
	DestArg string `arg:"" optional:"" name:"destination" help:"Atlas destination directory"`

	Dest          string `short:"d" help:"Atlas destination directory"`
	SheetDest     string `short:"o" name:"sheet-dest" help:"Stylesheet destination directory"`
	FontDest      string `name:"font-dest" help:"Icon font destination directory"`
	Padding       *int   `short:"p" help:"Padding between images in pixels"`
	Algorithm     string `short:"a" help:"Packing algorithm (top-down, left-right, diagonal, alt-diagonal, binary-tree)"`
	Engine        string `short:"e" help:"Packing engine"`
	Format        string `short:"f" help:"Stylesheet format (css, scss, less, json; any extension with a custom template)"`
	SheetTemplate string `short:"t" name:"sheet-template" help:"true, false or a template file path"`
	Cwd           string `help:"Base directory for relative patterns" type:"path"`
	IconFonts     bool   `name:"iconfonts" help:"Route SVG sources to an icon font"`
}

// load reads the configuration and applies flags on top of it.
func (f *SheetFlags) load(configPath string) (*config.Config, error) {
	dir := f.Cwd
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}
	cfg, err := config.Load(configPath, dir)
	if err != nil {
		return nil, err
	}
	f.apply(cfg)
	return cfg, nil
}

func (f *SheetFlags) apply(cfg *config.Config) {
	if f.Src != "" {
		cfg.Src = config.ScalarSource(f.Src)
	}
	switch {
	case f.Dest != "":
		cfg.Dest = f.Dest
	case f.DestArg != "":
		cfg.Dest = f.DestArg
	}
	if f.SheetDest != "" {
		cfg.SheetDest = f.SheetDest
	}
	if f.FontDest != "" {
		cfg.FontDest = f.FontDest
	}
	if f.Padding != nil {
		cfg.Padding = f.Padding
	}
	if f.Algorithm != "" {
		cfg.Algorithm = f.Algorithm
	}
	if f.Engine != "" {
		cfg.Engine = f.Engine
	}
	if f.Format != "" {
		cfg.SheetFormat = f.Format
	}
	if f.SheetTemplate != "" {
		cfg.SheetTemplate = config.ParseTemplateSetting(f.SheetTemplate)
	}
	if f.Cwd != "" {
		cfg.Cwd = f.Cwd
	}
	if f.IconFonts {
		cfg.IconFonts = true
	}
}
