package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/doxyhook/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force   bool   `help:"Overwrite existing configuration file"`
	Project string `short:"p" help:"Project name recorded in the configuration"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		wd, err := root.workDir()
		if err != nil {
			return err
		}
		path = filepath.Join(wd, config.DefaultFileName)
	}
	if err := config.Init(path, i.Project, i.Force); err != nil {
		return err
	}
	fmt.Printf("Wrote configuration to %s\n", path)
	return nil
}
