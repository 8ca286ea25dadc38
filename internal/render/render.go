// Package render compiles one templated document into final HTML.
//
// A render invocation validates its input, resolves the effective config from
// the build config and the document's front matter, provisions CSS, renders
// the document through its chain of layouts, sanitizes escaped class names
// and runs the transformer pipeline. Four optional hooks observe or replace
// the intermediate state; see AfterConfigHook and friends.
package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/css"
	errs "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/markdown"
	"git.home.luguber.info/inful/mailbuilder/internal/metrics"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
	"git.home.luguber.info/inful/mailbuilder/internal/templates"
	"git.home.luguber.info/inful/mailbuilder/internal/transformers"
)

// Stage names used for logging and metrics.
const (
	StageValidate  = "validate"
	StageConfig    = "config"
	StageCSS       = "css"
	StageEngine    = "engine"
	StageLayout    = "layout"
	StageSanitize  = "sanitize"
	StageTransform = "transform"
)

// TailwindOptions configures CSS provisioning.
type TailwindOptions struct {
	// CSS is the entry stylesheet. Defaults to css.DefaultEntry.
	CSS string
	// Config is the CSS framework configuration. Required unless Compiled is set.
	Config map[string]any
	// Compiled is precompiled CSS used verbatim.
	Compiled string
}

// Options is the caller-supplied configuration of one invocation.
type Options struct {
	Tailwind TailwindOptions

	// Config is the build configuration merged with the document's front matter.
	Config config.Config
	// Env is the build environment. When set the document body is wrapped in
	// an extends directive for its layout.
	Env string
	// Hooks may implement any of AfterConfigHook, BeforeRenderHook,
	// AfterRenderHook and AfterTransformersHook. Other values are ignored.
	Hooks any

	// FS resolves layouts and includes. Defaults to the working directory.
	FS fs.FS
	// Compiler defaults to css.NewUtilityCompiler.
	Compiler css.Compiler
	// Transformers defaults to the registered transformer pipeline.
	Transformers transformers.Processor
	// Recorder defaults to metrics.NoopRecorder.
	Recorder metrics.Recorder
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// MaxLayoutDepth bounds layout unwrapping. Defaults to DefaultMaxLayoutDepth.
	MaxLayoutDepth int
}

// Render compiles content into HTML. On failure no partial HTML is returned.
func Render(ctx context.Context, content string, opts Options) (string, error) {
	return RenderValue(ctx, content, opts)
}

// RenderValue is Render for untyped input such as decoded JSON. Anything but a
// string fails with ErrInvalidType.
func RenderValue(ctx context.Context, content any, opts Options) (string, error) {
	inv := newInvocation(opts)
	ctx = observability.WithRenderID(ctx, inv.id)

	start := time.Now()
	html, err := inv.run(ctx, content)
	inv.recorder.ObserveRenderDuration(time.Since(start))

	switch {
	case err == nil:
		inv.recorder.IncRenderOutcome(metrics.OutcomeSuccess)
		observability.DebugContext(ctx, inv.logger, "Render complete",
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
			logfields.Bytes(len(html)))
		return html, nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		inv.recorder.IncRenderOutcome(metrics.OutcomeCanceled)
	default:
		inv.recorder.IncRenderOutcome(metrics.OutcomeFailed)
	}
	return "", err
}

// invocation is the state of one Render call.
type invocation struct {
	opts     Options
	id       string
	logger   *slog.Logger
	recorder metrics.Recorder
	hooks    hookSet
	fsys     fs.FS
}

func newInvocation(opts Options) *invocation {
	inv := &invocation{
		opts:     opts,
		id:       uuid.NewString(),
		logger:   opts.Logger,
		recorder: opts.Recorder,
		hooks:    resolveHooks(opts.Hooks),
		fsys:     opts.FS,
	}
	if inv.logger == nil {
		inv.logger = slog.Default()
	}
	if inv.recorder == nil {
		inv.recorder = metrics.NoopRecorder{}
	}
	if inv.fsys == nil {
		inv.fsys = os.DirFS(".")
	}
	return inv
}

// stage times fn and records its result under name.
func (inv *invocation) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		inv.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	err := fn(ctx)
	inv.recorder.ObserveStageDuration(name, time.Since(start))

	switch {
	case err == nil:
		inv.recorder.IncStageResult(name, metrics.ResultSuccess)
	case errs.IsFatal(err):
		inv.recorder.IncStageResult(name, metrics.ResultFatal)
		observability.ErrorContext(ctx, inv.logger, "Fatal render error", logfields.Error(err))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		inv.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		inv.recorder.IncStageResult(name, metrics.ResultFailed)
		observability.DebugContext(ctx, inv.logger, "Render stage failed", logfields.Error(err))
	}
	return err
}

func (inv *invocation) run(ctx context.Context, content any) (string, error) {
	var (
		src         string
		doc         frontmatter.Document
		cfg         config.Config
		layout      string
		compiledCSS string
		engine      *templates.Engine
		html        string
	)

	err := inv.stage(ctx, StageValidate, func(context.Context) error {
		var err error
		src, err = validate(content, inv.opts)
		return err
	})
	if err != nil {
		return "", err
	}

	err = inv.stage(ctx, StageConfig, func(ctx context.Context) error {
		var err error
		doc, err = frontmatter.Parse(src)
		if err != nil {
			return errs.WrapError(err, errs.CategoryValidation, "invalid front matter").UserAction().Build()
		}
		cfg, layout, err = resolveConfig(inv.opts, doc)
		if err != nil {
			return err
		}
		observability.DebugContext(ctx, inv.logger, "Config resolved",
			logfields.Layout(layout), logfields.Env(inv.opts.Env))
		return inv.afterConfig(ctx, cfg)
	})
	if err != nil {
		return "", err
	}

	err = inv.stage(ctx, StageCSS, func(ctx context.Context) error {
		var err error
		compiledCSS, err = inv.provisionCSS(ctx, layout, doc.Body)
		return err
	})
	if err != nil {
		return "", err
	}

	err = inv.stage(ctx, StageEngine, func(ctx context.Context) error {
		engine = newEngine(inv.fsys, cfg)
		return inv.beforeRender(ctx, engine, cfg)
	})
	if err != nil {
		return "", err
	}

	err = inv.stage(ctx, StageLayout, func(ctx context.Context) error {
		tags := engine.Tags()
		body, initial := doc.Body, ""
		if inv.opts.Env != "" {
			body = extendsDirective(tags, layout) + "\n" + body
			initial = layout
		}
		maxDepth := inv.opts.MaxLayoutDepth
		if maxDepth <= 0 {
			maxDepth = DefaultMaxLayoutDepth
		}
		lr := &layoutResolver{
			engine:   engine,
			tags:     tags,
			vars:     map[string]any{"page": map[string]any(cfg), "env": inv.opts.Env, "css": compiledCSS},
			maxDepth: maxDepth,
			inv:      inv,
		}
		var err error
		html, err = lr.resolve(ctx, body, initial)
		return err
	})
	if err != nil {
		return "", err
	}

	err = inv.stage(ctx, StageSanitize, func(ctx context.Context) error {
		html = Sanitize(html)
		var err error
		html, err = inv.afterRender(ctx, html, cfg)
		return err
	})
	if err != nil {
		return "", err
	}

	err = inv.stage(ctx, StageTransform, func(ctx context.Context) error {
		processor := inv.opts.Transformers
		if processor == nil {
			processor = transformers.NewPipeline(inv.logger)
		}
		out, err := processor.Process(ctx, html, cfg)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return errs.WrapError(err, errs.CategoryTransform, "transformers failed").Build()
		}
		html, err = inv.afterTransformers(ctx, out, cfg)
		return err
	})
	if err != nil {
		return "", err
	}
	return html, nil
}

func validate(content any, opts Options) (string, error) {
	src, ok := content.(string)
	if !ok {
		return "", validationError(ErrInvalidType, "received %T", content)
	}
	if len(src) == 0 {
		return "", validationError(ErrEmptyInput, "content has zero length")
	}
	if opts.Config == nil {
		return "", configError(ErrInvalidConfig, "build config is required")
	}
	return src, nil
}

// resolveConfig merges front matter into the build config unless the config
// is already merged, and picks the layout.
func resolveConfig(opts Options, doc frontmatter.Document) (config.Config, string, error) {
	cfg := opts.Config
	if !cfg.IsMerged() {
		cfg = config.Merge(cfg, doc.Attributes)
	}
	layout := cfg.Layout()
	if layout == "" {
		switch {
		case opts.Tailwind.Compiled == "":
			return nil, "", configError(ErrMissingLayout, "css must be compiled but neither layout nor build.layout is set")
		case opts.Env != "":
			return nil, "", configError(ErrMissingLayout, "env %q requires a layout to extend", opts.Env)
		}
	}
	return cfg, layout, nil
}

// provisionCSS returns the precompiled CSS or compiles it from the layout and body.
func (inv *invocation) provisionCSS(ctx context.Context, layout, body string) (string, error) {
	tw := inv.opts.Tailwind
	if tw.Compiled != "" {
		return tw.Compiled, nil
	}
	if tw.Config == nil {
		return "", configError(ErrInvalidCSSConfig, "tailwind config is required when no compiled css is given")
	}

	layoutSrc, err := fs.ReadFile(inv.fsys, cleanPath(layout))
	if err != nil {
		return "", errs.FileSystemError("read layout").
			WithCause(fmt.Errorf("layout %s: %w", layout, err)).
			WithContext("layout", layout).
			Build()
	}

	compiler := inv.opts.Compiler
	if compiler == nil {
		compiler = css.NewUtilityCompiler()
	}
	entry := tw.CSS
	if entry == "" {
		entry = css.DefaultEntry
	}

	start := time.Now()
	out, err := compiler.Compile(ctx, css.Request{
		Entry:  entry,
		Corpus: string(layoutSrc) + body,
		Config: tw.Config,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", cssCompilationError(layout, err)
	}
	observability.DebugContext(ctx, inv.logger, "CSS compiled",
		logfields.Layout(layout),
		logfields.Bytes(len(out)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return out, nil
}

// newEngine builds the template engine for one invocation with markdown
// configured from the effective config.
func newEngine(fsys fs.FS, cfg config.Config) *templates.Engine {
	engine := templates.NewFromConfig(fsys, cfg)
	md := markdown.New(markdown.OptionsFromMap(cfg.Markdown()))
	engine.AddFunction("markdown", templates.StringFunction(md.Render))
	engine.AddFunction("markdownInline", templates.StringFunction(md.RenderInline))
	engine.AddFilter("markdown", templates.StringFilter(md.Render))
	return engine
}

func (inv *invocation) afterConfig(ctx context.Context, cfg config.Config) error {
	if inv.hooks.afterConfig == nil {
		return nil
	}
	inv.logHook(ctx, hookAfterConfig)
	if err := inv.hooks.afterConfig.AfterConfig(ctx, cfg); err != nil {
		return hookError(hookAfterConfig, err)
	}
	return nil
}

func (inv *invocation) beforeRender(ctx context.Context, engine *templates.Engine, cfg config.Config) error {
	if inv.hooks.beforeRender == nil {
		return nil
	}
	inv.logHook(ctx, hookBeforeRender)
	if err := inv.hooks.beforeRender.BeforeRender(ctx, engine, cfg); err != nil {
		return hookError(hookBeforeRender, err)
	}
	return nil
}

func (inv *invocation) afterRender(ctx context.Context, html string, cfg config.Config) (string, error) {
	if inv.hooks.afterRender == nil {
		return html, nil
	}
	inv.logHook(ctx, hookAfterRender)
	out, err := inv.hooks.afterRender.AfterRender(ctx, html, cfg)
	if err != nil {
		return "", hookError(hookAfterRender, err)
	}
	return out, nil
}

func (inv *invocation) afterTransformers(ctx context.Context, html string, cfg config.Config) (string, error) {
	if inv.hooks.afterTransformers == nil {
		return html, nil
	}
	inv.logHook(ctx, hookAfterTransformers)
	out, err := inv.hooks.afterTransformers.AfterTransformers(ctx, html, cfg)
	if err != nil {
		return "", hookError(hookAfterTransformers, err)
	}
	return out, nil
}

func (inv *invocation) logHook(ctx context.Context, name string) {
	observability.DebugContext(ctx, inv.logger, "Running hook", logfields.Hook(name))
}

func cleanPath(name string) string {
	return path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "./"))
}
