// Package markdown renders markdown fragments to HTML with goldmark.
//
// A Renderer is built from the options of one render invocation and never
// shared through package state, so invocations with different options can run
// concurrently.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options mirror the keys accepted under the markdown config section.
type Options struct {
	GFM         bool // tables, strikethrough, autolinks, task lists
	Breaks      bool // single newlines become <br>
	XHTML       bool // self-closing void elements
	HTML        bool // pass raw HTML through
	Typographer bool // smart quotes and dashes
	HeaderIDs   bool // id attributes on headings
}

// DefaultOptions matches the behaviour templates get without a markdown section.
func DefaultOptions() Options {
	return Options{GFM: true, HTML: true, HeaderIDs: true}
}

// OptionsFromMap reads Options from a config section, keeping defaults for absent keys.
func OptionsFromMap(m map[string]any) Options {
	opts := DefaultOptions()
	if m == nil {
		return opts
	}
	set := func(dst *bool, keys ...string) {
		for _, k := range keys {
			if v, ok := m[k].(bool); ok {
				*dst = v
				return
			}
		}
	}
	set(&opts.GFM, "gfm")
	set(&opts.Breaks, "breaks")
	set(&opts.XHTML, "xhtml")
	set(&opts.HTML, "html", "unsafe")
	set(&opts.Typographer, "typographer", "smartypants")
	set(&opts.HeaderIDs, "headerIds", "headerIDs")
	return opts
}

// Renderer converts markdown to HTML.
type Renderer struct {
	md   goldmark.Markdown
	opts Options
}

// New builds a Renderer for opts.
func New(opts Options) *Renderer {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}

	var parserOpts []parser.Option
	if opts.HeaderIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	var htmlOpts []renderer.Option
	if opts.Breaks {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if opts.XHTML {
		htmlOpts = append(htmlOpts, html.WithXHTML())
	}
	if opts.HTML {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &Renderer{md: md, opts: opts}
}

// Options returns the options the renderer was built with.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render converts a markdown block to HTML.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(dedent(src)), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderInline converts markdown and drops the paragraph wrapper of a single
// paragraph result, for use inside headings, buttons and table cells.
func (r *Renderer) RenderInline(src string) (string, error) {
	out, err := r.Render(src)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "<p>") && strings.HasSuffix(trimmed, "</p>") &&
		strings.Count(trimmed, "<p>") == 1 {
		return strings.TrimSuffix(strings.TrimPrefix(trimmed, "<p>"), "</p>"), nil
	}
	return trimmed, nil
}

// dedent strips the common leading indentation so markdown written indented
// inside an HTML template is not parsed as a code block.
func dedent(src string) string {
	lines := strings.Split(src, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return src
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
