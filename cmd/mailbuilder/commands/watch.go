package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mailbuilder/internal/build"
	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/metrics"
	"git.home.luguber.info/inful/mailbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output      string        `short:"o" help:"Output directory (overrides build.templates.destination)"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
	Debounce    time.Duration `name:"debounce" default:"300ms" help:"Quiet period before a rebuild"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	logger := g.logger()

	recorder := metrics.Recorder(metrics.NoopRecorder{})
	if w.MetricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv := &http.Server{
			Addr:              w.MetricsAddr,
			Handler:           metrics.NewServeMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Metrics server listening", slog.String("addr", w.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	svc := build.NewBuildService().WithLogger(logger).WithRecorder(recorder)
	rebuild := func(ctx context.Context) error {
		req, err := root.loadRequest()
		if err != nil {
			return err
		}
		req.OutputDir = w.Output
		return RunBuild(ctx, svc, req, g.out())
	}

	req, err := root.loadRequest()
	if err != nil {
		return err
	}
	if err := rebuild(ctx); err != nil {
		logger.Warn("Initial build failed", logfields.Error(err))
	}

	req.OutputDir = w.Output
	dirs := WatchDirs(root.ProjectRoot(), req.Config, root.Config)
	_, _ = fmt.Fprintf(g.out(), "Watching %d directories; press Ctrl+C to stop\n", len(dirs))
	return watch.New(rebuild, dirs...).
		WithExclude(build.OutputPath(req)).
		WithDebounce(w.Debounce).
		WithLogger(logger).
		Run(ctx)
}

// WatchDirs returns the directories holding templates, the layout and the
// configuration file.
func WatchDirs(root string, cfg config.Config, configPath string) []string {
	seen := map[string]bool{}
	add := func(dir string) {
		if dir == "" {
			return
		}
		seen[filepath.Clean(dir)] = true
	}
	for _, pattern := range build.SourcePatterns(cfg) {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		add(filepath.Join(root, filepath.FromSlash(base)))
	}
	if layout := cfg.Layout(); layout != "" {
		add(filepath.Join(root, filepath.Dir(filepath.FromSlash(layout))))
	}
	add(filepath.Dir(configPath))

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
