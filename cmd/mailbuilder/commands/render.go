package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mailbuilder/internal/build"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	File string `arg:"" help:"Template file, relative to the project root or absolute"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	req, err := root.loadRequest()
	if err != nil {
		return err
	}
	html, err := build.NewBuildService().WithLogger(g.logger()).RenderFile(ctx, req, r.File)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.out(), html)
	return err
}
