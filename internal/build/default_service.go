package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/css"
	mberrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/metrics"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
	"git.home.luguber.info/inful/mailbuilder/internal/render"
)

// DefaultEnv is used when a request names no environment.
const DefaultEnv = "local"

// RenderFunc renders one document. render.Render satisfies it.
type RenderFunc func(ctx context.Context, content string, opts render.Options) (string, error)

// DefaultBuildService is the standard implementation of BuildService.
// It orchestrates discovery → render → write → report.
type DefaultBuildService struct {
	render   RenderFunc
	compiler css.Compiler
	recorder metrics.Recorder
	logger   *slog.Logger
	fsys     func(root string) fs.FS
}

// NewBuildService creates a new DefaultBuildService with default dependencies.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		render:   render.Render,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		fsys:     os.DirFS,
	}
}

// WithRenderFunc replaces the renderer (for testing).
func (s *DefaultBuildService) WithRenderFunc(fn RenderFunc) *DefaultBuildService {
	s.render = fn
	return s
}

// WithCompiler sets the CSS compiler. When unset the compiler is chosen from
// build.tailwind.command (external binary) or the built-in utility compiler.
func (s *DefaultBuildService) WithCompiler(c css.Compiler) *DefaultBuildService {
	s.compiler = c
	return s
}

// WithRecorder sets the metrics recorder passed to every render.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	s.recorder = r
	return s
}

// WithLogger sets the logger.
func (s *DefaultBuildService) WithLogger(l *slog.Logger) *DefaultBuildService {
	s.logger = l
	return s
}

// WithFS sets how the project root is opened (for testing).
func (s *DefaultBuildService) WithFS(fn func(root string) fs.FS) *DefaultBuildService {
	s.fsys = fn
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	env := req.Env
	if env == "" {
		env = DefaultEnv
	}

	result := &BuildResult{StartTime: startTime}
	report := &Report{Env: env, StartedAt: startTime.UTC()}
	result.Report = report
	finish := func(status BuildStatus) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		report.Status = status
		report.DurationMS = millis(result.Duration)
	}

	if req.Config == nil {
		finish(BuildStatusFailed)
		return result, mberrors.ConfigError("config required").Build()
	}

	root := req.Root
	if root == "" {
		root = "."
	}
	fsys := s.fsys(root)
	result.OutputPath = destination(req, root, env)

	// Stage 1: discover templates
	templates, err := Discover(fsys, SourcePatterns(req.Config), req.Config.String("build.templates.extension"))
	if err != nil {
		finish(BuildStatusFailed)
		return result, mberrors.WrapError(err, mberrors.CategoryConfig, "template discovery failed").UserAction().Build()
	}
	observability.InfoContext(ctx, s.logger, "Discovered templates",
		slog.Int("count", len(templates)), logfields.Env(env), logfields.Path(result.OutputPath))

	// Stage 2: render and write each template
	opts := s.renderOptions(req.Config, env, fsys)
	var failures []error
	for _, tpl := range templates {
		select {
		case <-ctx.Done():
			finish(BuildStatusCancelled)
			return result, ctx.Err()
		default:
		}

		entry, err := s.buildTemplate(ctx, fsys, tpl, opts, result.OutputPath, req.Options.DryRun)
		report.Templates = append(report.Templates, entry)
		if err == nil {
			result.Rendered++
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			finish(BuildStatusCancelled)
			return result, err
		}

		result.Failed++
		failures = append(failures, err)
		if mberrors.IsFatal(err) || req.Options.FailFast {
			finish(BuildStatusFailed)
			return result, err
		}
	}

	// Stage 3: report
	status := BuildStatusSuccess
	if result.Failed > 0 {
		status = BuildStatusPartial
	}
	finish(status)
	if !req.Options.DryRun {
		if _, err := WriteReport(result.OutputPath, report); err != nil {
			return result, mberrors.WrapError(err, mberrors.CategoryFileSystem, "failed to write build report").Build()
		}
	}

	observability.InfoContext(ctx, s.logger, "Build complete",
		slog.String("status", string(status)),
		slog.Int("rendered", result.Rendered),
		slog.Int("failed", result.Failed),
		logfields.DurationMS(millis(result.Duration)))

	if len(failures) > 0 {
		return result, fmt.Errorf("%d of %d templates failed: %w", result.Failed, len(templates), errors.Join(failures...))
	}
	return result, nil
}

func (s *DefaultBuildService) buildTemplate(ctx context.Context, fsys fs.FS, tpl Template, opts render.Options, outDir string, dryRun bool) (TemplateReport, error) {
	ctx = observability.WithTemplate(ctx, tpl.Path)
	entry := TemplateReport{Source: tpl.Path}
	start := time.Now()

	src, err := fs.ReadFile(fsys, tpl.Path)
	if err != nil {
		entry.Error = err.Error()
		entry.DurationMS = millis(time.Since(start))
		return entry, mberrors.WrapError(err, mberrors.CategoryFileSystem, "read template").
			WithContext("template", tpl.Path).Build()
	}
	if doc, err := frontmatter.Parse(string(src)); err == nil {
		s.fingerprintSource(ctx, doc, &entry)
	}

	html, err := s.render(ctx, string(src), opts)
	if err != nil {
		observability.ErrorContext(ctx, s.logger, "Template failed", logfields.Error(err))
		entry.Error = err.Error()
		entry.DurationMS = millis(time.Since(start))
		return entry, fmt.Errorf("%w: %s: %w", ErrRender, tpl.Path, err)
	}
	entry.Bytes = len(html)
	entry.OutputFingerprint = frontmatter.FingerprintHTML(html)

	if !dryRun {
		if _, err := WriteOutput(outDir, tpl.Output, html); err != nil {
			entry.Error = err.Error()
			entry.DurationMS = millis(time.Since(start))
			return entry, err
		}
		entry.Output = tpl.Output
	}
	entry.DurationMS = millis(time.Since(start))
	observability.DebugContext(ctx, s.logger, "Template rendered",
		logfields.Template(tpl.Path), logfields.Bytes(len(html)), logfields.DurationMS(entry.DurationMS))
	return entry, nil
}

// fingerprintSource records the source fingerprint on entry. A document that
// cannot be fingerprinted still renders; the failure is kept as a warning.
func (s *DefaultBuildService) fingerprintSource(ctx context.Context, doc frontmatter.Document, entry *TemplateReport) {
	fp, err := frontmatter.Fingerprint(doc)
	if err != nil {
		observability.WarnContext(ctx, s.logger, "Source fingerprint failed", logfields.Error(err))
		entry.Warning = err.Error()
		return
	}
	entry.SourceFingerprint = fp
}

func (s *DefaultBuildService) renderOptions(cfg config.Config, env string, fsys fs.FS) render.Options {
	compiler := s.compiler
	if compiler == nil {
		compiler = CompilerFromConfig(cfg)
	}
	return render.Options{
		Tailwind: render.TailwindOptions{
			CSS:    cfg.String("build.tailwind.css"),
			Config: cfg.Map("build.tailwind.config"),
		},
		Config:   cfg,
		Env:      env,
		FS:       fsys,
		Compiler: compiler,
		Recorder: s.recorder,
		Logger:   s.logger,
	}
}

// CompilerFromConfig returns a CommandCompiler when build.tailwind.command is
// set and the built-in utility compiler otherwise.
func CompilerFromConfig(cfg config.Config) css.Compiler {
	if bin := cfg.String("build.tailwind.command"); bin != "" {
		return &css.CommandCompiler{Binary: bin, Args: cfg.Strings("build.tailwind.args")}
	}
	return css.NewUtilityCompiler()
}

// OutputPath returns the directory a build of req writes to.
func OutputPath(req BuildRequest) string {
	env := req.Env
	if env == "" {
		env = DefaultEnv
	}
	root := req.Root
	if root == "" {
		root = "."
	}
	return destination(req, root, env)
}

func destination(req BuildRequest, root, env string) string {
	dest := req.OutputDir
	if dest == "" {
		dest = req.Config.String("build.templates.destination")
	}
	if dest == "" {
		dest = "build_{env}"
	}
	dest = strings.ReplaceAll(dest, "{env}", env)
	if !filepath.IsAbs(dest) && req.OutputDir == "" {
		dest = filepath.Join(root, dest)
	}
	return dest
}

// RenderFile renders a single source file below req.Root without writing it.
func (s *DefaultBuildService) RenderFile(ctx context.Context, req BuildRequest, name string) (string, error) {
	if req.Config == nil {
		return "", mberrors.ConfigError("config required").Build()
	}
	env := req.Env
	if env == "" {
		env = DefaultEnv
	}
	root := req.Root
	if root == "" {
		root = "."
	}
	fsys := s.fsys(root)

	rel := filepath.ToSlash(filepath.Clean(name))
	if filepath.IsAbs(name) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return "", mberrors.WrapError(err, mberrors.CategoryFileSystem, "resolve project root").Build()
		}
		r, err := filepath.Rel(absRoot, name)
		if err != nil {
			return "", mberrors.WrapError(err, mberrors.CategoryFileSystem, "resolve template path").Build()
		}
		rel = filepath.ToSlash(r)
	}
	src, err := fs.ReadFile(fsys, rel)
	if err != nil {
		return "", mberrors.WrapError(err, mberrors.CategoryFileSystem, "read template").
			WithContext("template", rel).UserAction().Build()
	}
	return s.render(observability.WithTemplate(ctx, rel), string(src), s.renderOptions(req.Config, env, fsys))
}
