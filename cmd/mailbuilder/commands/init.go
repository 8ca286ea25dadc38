package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/mailbuilder/internal/build"
	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	return RunInit(g, root.Config, i.Force)
}

// RunInit writes the starter configuration and scaffolds the project next to it.
func RunInit(g *Global, configPath string, force bool) error {
	out := g.out()
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	written, err := build.Scaffold(filepath.Dir(configPath))
	for _, path := range written {
		_, _ = fmt.Fprintf(out, "Created %s\n", path)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
