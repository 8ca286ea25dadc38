package render

import (
	"context"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/templates"
)

// AfterConfigHook runs right after the effective config is resolved, before
// any CSS or layout work. It may mutate cfg in place.
type AfterConfigHook interface {
	AfterConfig(ctx context.Context, cfg config.Config) error
}

// BeforeRenderHook runs once the template engine exists and before the first
// render, e.g. to register functions or globals.
type BeforeRenderHook interface {
	BeforeRender(ctx context.Context, eng *templates.Engine, cfg config.Config) error
}

// AfterRenderHook receives the flattened, sanitized HTML and returns the
// HTML that continues down the pipeline.
type AfterRenderHook interface {
	AfterRender(ctx context.Context, html string, cfg config.Config) (string, error)
}

// AfterTransformersHook receives the transformer output and returns the final HTML.
type AfterTransformersHook interface {
	AfterTransformers(ctx context.Context, html string, cfg config.Config) (string, error)
}

// HookFuncs implements every hook interface from optional functions. Nil
// fields are skipped.
type HookFuncs struct {
	OnAfterConfig       func(ctx context.Context, cfg config.Config) error
	OnBeforeRender      func(ctx context.Context, eng *templates.Engine, cfg config.Config) error
	OnAfterRender       func(ctx context.Context, html string, cfg config.Config) (string, error)
	OnAfterTransformers func(ctx context.Context, html string, cfg config.Config) (string, error)
}

func (h HookFuncs) AfterConfig(ctx context.Context, cfg config.Config) error {
	if h.OnAfterConfig == nil {
		return nil
	}
	return h.OnAfterConfig(ctx, cfg)
}

func (h HookFuncs) BeforeRender(ctx context.Context, eng *templates.Engine, cfg config.Config) error {
	if h.OnBeforeRender == nil {
		return nil
	}
	return h.OnBeforeRender(ctx, eng, cfg)
}

func (h HookFuncs) AfterRender(ctx context.Context, html string, cfg config.Config) (string, error) {
	if h.OnAfterRender == nil {
		return html, nil
	}
	return h.OnAfterRender(ctx, html, cfg)
}

func (h HookFuncs) AfterTransformers(ctx context.Context, html string, cfg config.Config) (string, error) {
	if h.OnAfterTransformers == nil {
		return html, nil
	}
	return h.OnAfterTransformers(ctx, html, cfg)
}

const (
	hookAfterConfig       = "afterConfig"
	hookBeforeRender      = "beforeRender"
	hookAfterRender       = "afterRender"
	hookAfterTransformers = "afterTransformers"
)

// hookSet holds the capabilities a hooks value actually implements.
type hookSet struct {
	afterConfig       AfterConfigHook
	beforeRender      BeforeRenderHook
	afterRender       AfterRenderHook
	afterTransformers AfterTransformersHook
}

func resolveHooks(h any) hookSet {
	var hs hookSet
	if h == nil {
		return hs
	}
	hs.afterConfig, _ = h.(AfterConfigHook)
	hs.beforeRender, _ = h.(BeforeRenderHook)
	hs.afterRender, _ = h.(AfterRenderHook)
	hs.afterTransformers, _ = h.(AfterTransformersHook)
	return hs
}
