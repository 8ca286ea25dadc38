package templates

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

func newTestEngine(files map[string]string, opts ...Option) *Engine {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return New(fsys, config.DefaultTags(), opts...)
}

func TestRenderString_Variables(t *testing.T) {
	e := newTestEngine(nil)

	out, err := e.RenderString(context.Background(), "Hello {{ page.name }} ({{ env }})", map[string]any{
		"page": config.Config{"name": "Ada"},
		"env":  "production",
	})
	require.NoError(t, err)
	require.Equal(t, "Hello Ada (production)", out)
}

func TestRenderString_UndefinedRendersEmpty(t *testing.T) {
	e := newTestEngine(nil)

	out, err := e.RenderString(context.Background(), "<title>{{ page.title }}</title>", map[string]any{"page": map[string]any{}})
	require.NoError(t, err)
	require.Equal(t, "<title></title>", out)
}

func TestRenderString_ExtendsReplacesBlocks(t *testing.T) {
	e := newTestEngine(map[string]string{
		"layouts/main.html": "<html>{% block template %}default{% endblock %}</html>",
	})

	src := "{% extends \"layouts/main.html\" %}\nignored text{% block template %}<p>{{ page.title }}</p>{% endblock %}"
	out, err := e.RenderString(context.Background(), src, map[string]any{"page": map[string]any{"title": "Hi"}})
	require.NoError(t, err)
	require.Equal(t, "<html><p>Hi</p></html>", out)
}

func TestRenderString_EmptyChildBlockOverridesParent(t *testing.T) {
	e := newTestEngine(map[string]string{
		"l.html": "<td>{% block template %}DEFAULT{% endblock %}</td>",
	})

	out, err := e.RenderString(context.Background(), "{% extends \"l.html\" %}{% block template %}{% endblock %}", nil)
	require.NoError(t, err)
	require.Equal(t, "<td></td>", out)

	out, err = e.RenderString(context.Background(), "{% extends \"l.html\" %}{% block template %}  {% endblock %}", nil)
	require.NoError(t, err)
	require.Equal(t, "<td>  </td>", out)
}

func TestRenderString_ParentBlockDefaultKeptWhenNotOverridden(t *testing.T) {
	e := newTestEngine(map[string]string{
		"base.html": "<head>{% block head %}<title>Default</title>{% endblock %}</head><body>{% block template %}{% endblock %}</body>",
	})

	out, err := e.RenderString(context.Background(), "{% extends \"base.html\" %}{% block template %}body{% endblock %}", nil)
	require.NoError(t, err)
	require.Equal(t, "<head><title>Default</title></head><body>body</body>", out)
}

func TestRenderString_MultiLevelExtends(t *testing.T) {
	e := newTestEngine(map[string]string{
		"outer.html": "<outer>{% block template %}{% endblock %}</outer>",
		"inner.html": "{% extends \"outer.html\" %}{% block template %}<inner>{% block content %}{% endblock %}</inner>{% endblock %}",
	})

	out, err := e.RenderString(context.Background(), "{% extends \"inner.html\" %}{% block content %}doc{% endblock %}", nil)
	require.NoError(t, err)
	require.Equal(t, "<outer><inner>doc</inner></outer>", out)
}

func TestRenderString_CyclicExtends(t *testing.T) {
	e := newTestEngine(map[string]string{
		"a.html": "{% extends \"b.html\" %}",
		"b.html": "{% extends \"a.html\" %}",
	})

	_, err := e.RenderString(context.Background(), "{% extends \"a.html\" %}", nil)
	require.ErrorIs(t, err, ErrInheritanceDepth)
}

func TestRenderString_MissingParent(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.RenderString(context.Background(), "{% extends \"nope.html\" %}", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderString_IncludeAndComments(t *testing.T) {
	e := newTestEngine(map[string]string{
		"partials/footer.html": "<footer>{{ page.company }}</footer>",
	})

	out, err := e.RenderString(context.Background(), "{# hidden #}<main></main>{% include \"partials/footer.html\" %}", map[string]any{
		"page": map[string]any{"company": "ACME"},
	})
	require.NoError(t, err)
	require.Equal(t, "<main></main><footer>ACME</footer>", out)
}

func TestRenderString_ControlFlowStatements(t *testing.T) {
	e := newTestEngine(nil)

	src := "{% if page.show %}yes{% elif page.other %}other{% else %}no{% endif %}|{% for item in page.items %}[{{ item }}]{% endfor %}"
	out, err := e.RenderString(context.Background(), src, map[string]any{
		"page": map[string]any{"show": false, "other": true, "items": []any{"a", "b"}},
	})
	require.NoError(t, err)
	require.Equal(t, "other|[a][b]", out)
}

func TestRenderString_NoAutoEscape(t *testing.T) {
	e := newTestEngine(nil)

	out, err := e.RenderString(context.Background(), "<style>{{ css }}</style>", map[string]any{"css": "a>b{color:red}"})
	require.NoError(t, err)
	require.Equal(t, "<style>a>b{color:red}</style>", out)
}

func TestRenderString_CustomDelimiters(t *testing.T) {
	tags := config.DefaultTags()
	tags.BlockStart, tags.BlockEnd = "<%", "%>"
	tags.VariableStart, tags.VariableEnd = "[[", "]]"
	fsys := fstest.MapFS{"l.html": {Data: []byte("<div><% block template %><% endblock %></div>")}}
	e := New(fsys, tags)

	out, err := e.RenderString(context.Background(), "<% extends \"l.html\" %><% block template %>[[ css ]] {{ untouched }}<% endblock %>", map[string]any{"css": ".a{}"})
	require.NoError(t, err)
	require.Equal(t, "<div>.a{} {{ untouched }}</div>", out)
}

func TestNormalizeDelimiters(t *testing.T) {
	e := New(nil, config.Tags{
		BlockStart: "[%", BlockEnd: "%]",
		VariableStart: "[[", VariableEnd: "]]",
		CommentStart: "[#", CommentEnd: "#]",
	})

	got := e.normalizeDelimiters("[%- if x %][[ y ]][% endif -%] {{ lit }}[# c #]")
	require.Equal(t, "{%- if x %}{{ y }}{% endif -%}{% raw %} {{ lit }}{% endraw %}{# c #}", got)

	require.Equal(t, "{{ a }}", newTestEngine(nil).normalizeDelimiters("{{ a }}"))
}

func TestRenderString_TrimBlocks(t *testing.T) {
	e := newTestEngine(nil, WithTrimBlocks(true))

	out, err := e.RenderString(context.Background(), "{% if true %}\nline\n{% endif %}\n", nil)
	require.NoError(t, err)
	require.Equal(t, "line\n", out)
}

func TestAddFunctionAndGlobal(t *testing.T) {
	e := newTestEngine(nil)
	e.AddFunction("shout", StringFunction(func(s string) (string, error) { return strings.ToUpper(s) + "!", nil }))
	e.AddGlobal("brand", "acme")

	out, err := e.RenderString(context.Background(), "{{ shout(brand) }}", nil)
	require.NoError(t, err)
	require.Equal(t, "ACME!", out)

	out, err = e.RenderString(context.Background(), "{{ brand }}", map[string]any{"brand": "override"})
	require.NoError(t, err)
	require.Equal(t, "override", out)
}

func TestBuiltins(t *testing.T) {
	e := newTestEngine(nil)

	out, err := e.RenderString(context.Background(), `{{ page.missing | default("fallback") }}|{{ "a" | upper }}|{{ "welcome back" | title }}`, map[string]any{
		"page": map[string]any{},
	})
	require.NoError(t, err)
	require.Equal(t, `fallback|A|Welcome Back`, out)

	_, err = e.RenderString(context.Background(), `{{ markdown("# x") }}`, nil)
	require.ErrorContains(t, err, "markdown is not configured")
}

func TestRenderString_UnbalancedStatement(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.RenderString(context.Background(), "{% endblock %}", nil)
	require.Error(t, err)
}

func TestRenderString_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(nil).RenderString(ctx, "x", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewFromConfig_UsesConfiguredTags(t *testing.T) {
	cfg := config.Config{"build": map[string]any{"nunjucks": map[string]any{
		"tags":       map[string]any{"blockStart": "<%", "blockEnd": "%>"},
		"trimBlocks": true,
	}}}

	e := NewFromConfig(fstest.MapFS{}, cfg)
	require.Equal(t, "<%", e.Tags().BlockStart)
	require.True(t, e.trimBlocks)
}
