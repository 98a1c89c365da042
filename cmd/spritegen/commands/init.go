package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/spritegen/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite an existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write spritegen.yaml into"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	switch {
	case i.Output != "":
		return RunInit(filepath.Join(i.Output, config.DefaultConfigFile), i.Force)
	case root.Config != "":
		return RunInit(root.Config, i.Force)
	default:
		return RunInit(config.DefaultConfigFile, i.Force)
	}
}

func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
