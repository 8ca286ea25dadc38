package render

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
	"git.home.luguber.info/inful/mailbuilder/internal/templates"
)

// DefaultMaxLayoutDepth bounds the number of layouts one document may unwrap.
const DefaultMaxLayoutDepth = 32

// layoutResolver flattens a document into its chain of layouts.
type layoutResolver struct {
	engine   *templates.Engine
	tags     config.Tags
	vars     map[string]any
	maxDepth int
	inv      *invocation
}

// extendsDirective builds `<bs> extends "<layout>" <be>` with the configured delimiters.
func extendsDirective(tags config.Tags, layout string) string {
	return fmt.Sprintf("%s extends %q %s", tags.BlockStart, layout, tags.BlockEnd)
}

// wrapInLayout nests body in the template block of layout.
func wrapInLayout(tags config.Tags, layout, body string) string {
	return extendsDirective(tags, layout) + "\n" +
		tags.BlockStart + " block template " + tags.BlockEnd +
		body +
		tags.BlockStart + " endblock " + tags.BlockEnd
}

// resolve renders body, then keeps unwrapping while the output declares a
// layout in its front matter. initial is the layout the body was already
// wrapped in, if any.
func (l *layoutResolver) resolve(ctx context.Context, body, initial string) (string, error) {
	visited := map[string]bool{}
	if initial != "" {
		visited[initial] = true
	}

	html, err := l.engine.RenderString(ctx, body, l.vars)
	if err != nil {
		return "", renderError(ctx, initial, err)
	}

	depth := 1
	for {
		doc, err := frontmatter.Parse(html)
		if err != nil {
			return "", templateError("invalid front matter in rendered layout", "", err)
		}
		layout, ok := doc.Layout()
		if !ok {
			l.inv.recorder.ObserveLayoutDepth(depth)
			return html, nil
		}
		if visited[layout] {
			return "", layoutError(ErrCyclicLayout, layout, "layout %q is already part of the chain", layout)
		}
		if depth >= l.maxDepth {
			return "", layoutError(ErrCyclicLayout, layout, "more than %d layouts", l.maxDepth)
		}
		visited[layout] = true
		depth++

		observability.DebugContext(ctx, l.inv.logger, "Unwrapping layout", logfields.Layout(layout))
		html, err = l.engine.RenderString(ctx, wrapInLayout(l.tags, layout, doc.Body), l.vars)
		if err != nil {
			return "", renderError(ctx, layout, err)
		}
	}
}

func renderError(ctx context.Context, layout string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return templateError("template render failed", layout, err)
}
