package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/mailbuilder/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output   string `short:"o" help:"Output directory (overrides build.templates.destination)"`
	DryRun   bool   `name:"dry-run" help:"Render without writing files"`
	FailFast bool   `name:"fail-fast" help:"Stop at the first failing template"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	req, err := root.loadRequest()
	if err != nil {
		return err
	}
	req.OutputDir = b.Output
	req.Options = build.BuildOptions{DryRun: b.DryRun, FailFast: b.FailFast}

	svc := build.NewBuildService().WithLogger(g.logger())
	return RunBuild(ctx, svc, req, g.out())
}

// RunBuild executes one build and prints a summary to out.
func RunBuild(ctx context.Context, svc build.BuildService, req build.BuildRequest, out io.Writer) error {
	result, err := svc.Run(ctx, req)
	if result != nil {
		_, _ = fmt.Fprintf(out, "Build %s: %d rendered, %d failed in %s\n",
			result.Status, result.Rendered, result.Failed, result.Duration.Round(time.Millisecond))
		if result.Status.IsSuccess() && !req.Options.DryRun {
			_, _ = fmt.Fprintf(out, "Output written to %s\n", result.OutputPath)
		}
	}
	return err
}
