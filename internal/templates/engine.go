// Package templates renders Jinja-style templates with layout inheritance.
//
// Rendering is done by minijinja-go. The engine adds what a project needs on
// top of it: templates referenced through extends, include, import and from
// are loaded from an fs.FS before rendering, extends cycles are rejected, and
// the delimiters configured under build.nunjucks.tags are accepted:
//
//	{% extends "src/layouts/main.html" %}
//	{% block template %}<p>{{ page.title | default("Hi") }}</p>{% endblock %}
//	{% include "src/partials/footer.html" %}
//
// Output is never auto-escaped; templates produce HTML.
package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/mitsuhiko/minijinja/minijinja-go/v2"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

const (
	defaultMaxDepth = 32
	stringName      = "<string>"
)

var (
	// ErrTemplateNotFound is returned when an extended or included template cannot be read.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInheritanceDepth is returned when extends or include chains loop or run too deep.
	ErrInheritanceDepth = errors.New("template inheritance too deep or cyclic")
)

var (
	extendsRE   = regexp.MustCompile(`\{%-?\s*extends\s+["']([^"']+)["']`)
	referenceRE = regexp.MustCompile(`\{%-?\s*(?:include|import|from)\s+["']([^"']+)["']`)
)

// Function is a template function: {{ name(args) }}.
type Function = func(state *minijinja.State, args []minijinja.Value, kwargs map[string]minijinja.Value) (minijinja.Value, error)

// Filter is a template filter: {{ value | name(args) }}.
type Filter = func(state *minijinja.State, value minijinja.Value, args []minijinja.Value) (minijinja.Value, error)

// Engine renders template strings. It is cheap to create and meant to be
// created once per render invocation.
type Engine struct {
	fsys       fs.FS
	tags       config.Tags
	trimBlocks bool
	maxDepth   int
	functions  map[string]Function
	filters    map[string]Filter
	globals    map[string]any
}

// Option configures an Engine.
type Option func(*Engine)

// WithTrimBlocks removes the first newline after a block statement.
func WithTrimBlocks(enabled bool) Option {
	return func(e *Engine) { e.trimBlocks = enabled }
}

// WithMaxDepth bounds extends and include nesting.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// New creates an Engine loading extended and included templates from fsys.
func New(fsys fs.FS, tags config.Tags, opts ...Option) *Engine {
	e := &Engine{
		fsys:      fsys,
		tags:      tags,
		maxDepth:  defaultMaxDepth,
		functions: builtinFunctions(),
		filters:   builtinFilters(),
		globals:   map[string]any{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig creates an Engine using the build.nunjucks settings of cfg.
func NewFromConfig(fsys fs.FS, cfg config.Config) *Engine {
	trim, _ := cfg.Engine()["trimBlocks"].(bool)
	return New(fsys, cfg.Tags(), WithTrimBlocks(trim))
}

// Tags returns the delimiters the engine was configured with.
func (e *Engine) Tags() config.Tags {
	return e.tags
}

// AddFunction registers a template function. Later registrations win.
func (e *Engine) AddFunction(name string, fn Function) {
	e.functions[name] = fn
}

// AddFilter registers a template filter. Later registrations win.
func (e *Engine) AddFilter(name string, fn Filter) {
	e.filters[name] = fn
}

// AddGlobal exposes value to every render under name. Render variables
// with the same name take precedence.
func (e *Engine) AddGlobal(name string, value any) {
	e.globals[name] = value
}

// RenderString renders src with vars as the template context.
func (e *Engine) RenderString(ctx context.Context, src string, vars map[string]any) (string, error) {
	return e.render(ctx, stringName, src, vars)
}

// Render loads the named template from the engine's filesystem and renders it.
func (e *Engine) Render(ctx context.Context, name string, vars map[string]any) (string, error) {
	src, err := e.readFile(name)
	if err != nil {
		return "", err
	}
	return e.render(ctx, name, src, vars)
}

func (e *Engine) render(ctx context.Context, name, src string, vars map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	env := e.environment()
	l := &loader{engine: e, env: env, loaded: map[string]bool{}}
	if err := l.add(name, src, nil, 0); err != nil {
		return "", err
	}

	tmpl, err := env.GetTemplate(name)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}
	out, err := tmpl.Render(e.data(vars))
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return out, nil
}

func (e *Engine) environment() *minijinja.Environment {
	env := minijinja.NewEnvironment()
	env.SetAutoEscapeFunc(func(string) minijinja.AutoEscape { return minijinja.AutoEscapeNone })
	env.SetTrimBlocks(e.trimBlocks)
	for name, fn := range e.functions {
		env.AddFunction(name, fn)
	}
	for name, fn := range e.filters {
		env.AddFilter(name, fn)
	}
	return env
}

// loader adds a template and everything it references to env.
type loader struct {
	engine *Engine
	env    *minijinja.Environment
	loaded map[string]bool
}

// add registers src under name. chain holds the templates extending into
// name and is used to reject extends cycles.
func (l *loader) add(name, src string, chain []string, depth int) error {
	if depth > l.engine.maxDepth {
		return fmt.Errorf("%w: %s", ErrInheritanceDepth, name)
	}
	src = l.engine.normalizeDelimiters(src)
	if err := l.env.AddTemplate(name, src); err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	l.loaded[name] = true

	if m := extendsRE.FindStringSubmatch(src); m != nil {
		parent := m[1]
		if parent == name || slices.Contains(chain, parent) {
			return fmt.Errorf("%w: %s extends %s", ErrInheritanceDepth, name, parent)
		}
		if !l.loaded[parent] {
			if err := l.addFile(parent, append(slices.Clone(chain), name), depth+1); err != nil {
				return err
			}
		}
	}
	for _, m := range referenceRE.FindAllStringSubmatch(src, -1) {
		if l.loaded[m[1]] {
			continue
		}
		if err := l.addFile(m[1], nil, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) addFile(name string, chain []string, depth int) error {
	src, err := l.engine.readFile(name)
	if err != nil {
		return err
	}
	return l.add(name, src, chain, depth)
}

func (e *Engine) readFile(name string) (string, error) {
	if e.fsys == nil {
		return "", fmt.Errorf("%w: %s (no template filesystem configured)", ErrTemplateNotFound, name)
	}
	clean := path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "./"))
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("%w: invalid template path %q", ErrTemplateNotFound, name)
	}
	data, err := fs.ReadFile(e.fsys, clean)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTemplateNotFound, name, err)
	}
	return string(data), nil
}

func (e *Engine) data(vars map[string]any) map[string]any {
	out := make(map[string]any, len(e.globals)+len(vars))
	maps.Copy(out, e.globals)
	for k, v := range vars {
		out[k] = plain(v)
	}
	return out
}

// plain converts config.Config values to map[string]any so they reach the
// template as maps.
func plain(v any) any {
	if c, ok := v.(config.Config); ok {
		return map[string]any(c)
	}
	return v
}
