package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mailbuilder/internal/build"
	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

// Global carries state shared by every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Env     string           `short:"e" help:"Build environment; selects config.<env>.yaml and the output directory" default:"local"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Render every template of the project"`
	Watch  WatchCmd  `cmd:"" help:"Build, then rebuild whenever templates or layouts change"`
	Render RenderCmd `cmd:"" help:"Render one template to stdout"`
	Init   InitCmd   `cmd:"" help:"Create a starter configuration, layout and template"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ProjectRoot is the directory holding the configuration file. Template and
// layout paths in the configuration are relative to it.
func (c *CLI) ProjectRoot() string {
	return filepath.Dir(c.Config)
}

func (c *CLI) loadRequest() (build.BuildRequest, error) {
	cfg, err := config.Load(c.Config, c.Env)
	if err != nil {
		return build.BuildRequest{}, fmt.Errorf("load config: %w", err)
	}
	return build.BuildRequest{Config: cfg, Env: c.Env, Root: c.ProjectRoot()}, nil
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
