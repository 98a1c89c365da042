package commands

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SheetFlags

	Watch bool `short:"w" help:"Keep watching sources after the initial build"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := b.load(root.Config)
	if err != nil {
		return err
	}
	if b.Watch {
		cfg.Watch = true
	}
	return Run(cfg)
}

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SheetFlags

	OnChange bool `name:"on-change" help:"Also rebuild when a tracked file's contents change"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := w.load(root.Config)
	if err != nil {
		return err
	}
	cfg.Watch = true
	if w.OnChange {
		cfg.WatchOptions.OnChange = true
	}
	return Run(cfg)
}
