package transformers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

func run(t *testing.T, tr Transformer, src string, cfg config.Config) string {
	t.Helper()
	out, err := tr.Transform(context.Background(), src, cfg)
	require.NoError(t, err)
	return out
}

func TestRegistryOrdering(t *testing.T) {
	names := NewPipeline(nil).Names()
	require.Equal(t, []string{
		"extraAttributes", "baseURL", "urlParameters", "sixHex",
		"removeAttributes", "replaceStrings", "minify",
	}, names)
}

func TestRegisterIsIdempotent(t *testing.T) {
	snap := SnapshotForTest()
	defer RestoreForTest(snap)

	before := len(List())
	Register(SixHex{})
	Register(nil)
	require.Len(t, List(), before)
}

type stubTransformer struct {
	name string
	pr   int
	fn   func(string) (string, error)
}

func (s stubTransformer) Name() string  { return s.name }
func (s stubTransformer) Priority() int { return s.pr }
func (s stubTransformer) Transform(_ context.Context, html string, _ config.Config) (string, error) {
	return s.fn(html)
}

func TestPipelineRunsInPriorityOrder(t *testing.T) {
	p := NewPipeline(nil,
		stubTransformer{name: "b", pr: 20, fn: func(s string) (string, error) { return s + "b", nil }},
		stubTransformer{name: "a", pr: 10, fn: func(s string) (string, error) { return s + "a", nil }},
		stubTransformer{name: "c", pr: 10, fn: func(s string) (string, error) { return s + "c", nil }},
	)
	out, err := p.Process(context.Background(), "", config.Config{})
	require.NoError(t, err)
	require.Equal(t, "acb", out)
}

func TestPipelineAllowlist(t *testing.T) {
	p := NewPipeline(nil,
		stubTransformer{name: "a", pr: 10, fn: func(s string) (string, error) { return s + "a", nil }},
		stubTransformer{name: "b", pr: 20, fn: func(s string) (string, error) { return s + "b", nil }},
	)
	cfg := config.Config{"build": map[string]any{"transformers": []any{"b"}}}
	out, err := p.Process(context.Background(), "", cfg)
	require.NoError(t, err)
	require.Equal(t, "b", out)

	cfg = config.Config{"build": map[string]any{"transformers": []any{}}}
	out, err = p.Process(context.Background(), "x", cfg)
	require.NoError(t, err)
	require.Equal(t, "x", out)

	cfg = config.Config{"build": map[string]any{"transformers": []any{"b", "zzz"}}}
	_, err = p.Process(context.Background(), "", cfg)
	require.ErrorContains(t, err, "zzz")
}

func TestPipelineWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(nil, stubTransformer{name: "bad", pr: 1, fn: func(string) (string, error) { return "", boom }})
	_, err := p.Process(context.Background(), "x", config.Config{})
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "transformer bad")
}

func TestPipelineHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPipeline(nil).Process(ctx, "<p></p>", config.Config{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtraAttributes(t *testing.T) {
	cfg := config.Config{"extraAttributes": map[string]any{
		"table":   map[string]any{"cellpadding": 0, "role": "none"},
		".hero":   map[string]any{"data-x": "1"},
		"#main":   map[string]any{"lang": "en"},
		"td.cell": map[string]any{"valign": "top"},
	}}
	src := `<table role="presentation"><tr><td class="cell hero">&nbsp;</td><td id="main"></td></tr></table>`
	out := run(t, ExtraAttributes{}, src, cfg)
	require.Equal(t,
		`<table role="presentation" cellpadding="0"><tr><td class="cell hero" data-x="1" valign="top">&nbsp;</td><td id="main" lang="en"></td></tr></table>`,
		out)

	require.Equal(t, src, run(t, ExtraAttributes{}, src, config.Config{}))
}

func TestExtraAttributesSelectorLists(t *testing.T) {
	cfg := config.Config{"extraAttributes": map[string]any{
		"td, th":              map[string]any{"valign": "top"},
		"table[border]":       map[string]any{"role": "presentation"},
		"tr > td:first-child": map[string]any{"data-first": "1"},
	}}
	src := `<table border="0"><tr><th>h</th><td>a</td><td valign="middle">b</td></tr></table><table><tr><td>c</td></tr></table>`
	out := run(t, ExtraAttributes{}, src, cfg)
	require.Equal(t,
		`<table border="0" role="presentation"><tr><th valign="top">h</th><td valign="top">a</td><td valign="middle">b</td></tr></table>`+
			`<table><tr><td valign="top" data-first="1">c</td></tr></table>`,
		out)
}

func TestExtraAttributesInvalidSelector(t *testing.T) {
	cfg := config.Config{"extraAttributes": map[string]any{"td[": map[string]any{"x": "1"}}}
	_, err := ExtraAttributes{}.Transform(context.Background(), "<p></p>", cfg)
	require.ErrorContains(t, err, "extraAttributes")
}

func TestSixHex(t *testing.T) {
	out := run(t, SixHex{}, `<td bgcolor="#abc"><font color="#FFF">x</font><p style="color:#abc">y</p></td>`, config.Config{})
	require.Equal(t, `<td bgcolor="#aabbcc"><font color="#FFFFFF">x</font><p style="color:#abc">y</p></td>`, out)
}

func TestRemoveAttributes(t *testing.T) {
	cfg := config.Config{"removeAttributes": []any{
		"style",
		map[string]any{"name": "role", "value": "none"},
		map[string]any{"name": "data-id", "value": "*"},
	}}
	out := run(t, RemoveAttributes{}, `<p style="" role="none" data-id="7">a</p><p style="color:red" role="main">b</p>`, cfg)
	require.Equal(t, `<p>a</p><p style="color:red" role="main">b</p>`, out)

	_, err := RemoveAttributes{}.Transform(context.Background(), "", config.Config{"removeAttributes": "style"})
	require.Error(t, err)
}

func TestBaseURL(t *testing.T) {
	src := `<img src="images/logo.png"><a href="/about">a</a><a href="https://x.test/">b</a><a href="#top">c</a><td background="bg.jpg"></td><a href="mailto:a@b.c">d</a>`
	out := run(t, BaseURL{}, src, config.Config{"baseURL": "https://cdn.test/mail/"})
	require.Equal(t,
		`<img src="https://cdn.test/mail/images/logo.png"><a href="https://cdn.test/mail/about">a</a><a href="https://x.test/">b</a><a href="#top">c</a><td background="https://cdn.test/mail/bg.jpg"></td><a href="mailto:a@b.c">d</a>`,
		out)

	out = run(t, BaseURL{}, `<img src="a.png"><a href="b.html">b</a>`,
		config.Config{"baseURL": map[string]any{"url": "https://cdn.test", "tags": []any{"img"}}})
	require.Equal(t, `<img src="https://cdn.test/a.png"><a href="b.html">b</a>`, out)
}

func TestURLParameters(t *testing.T) {
	cfg := config.Config{"urlParameters": map[string]any{"utm_source": "news", "utm_medium": "email"}}
	out := run(t, URLParameters{}, `<a href="https://x.test/p?utm_source=keep">a</a><a href="/rel">b</a>`, cfg)
	require.Equal(t, `<a href="https://x.test/p?utm_source=keep&amp;utm_medium=email">a</a><a href="/rel">b</a>`, out)
}

func TestReplaceStrings(t *testing.T) {
	cfg := config.Config{"replaceStrings": map[string]any{`\bfoo\b`: "bar", `(\d+)px`: "${1}pt"}}
	require.Equal(t, "bar 10pt food", run(t, ReplaceStrings{}, "foo 10px food", cfg))

	_, err := ReplaceStrings{}.Transform(context.Background(), "x", config.Config{"replaceStrings": map[string]any{"(": "y"}})
	require.ErrorContains(t, err, "invalid replaceStrings pattern")
}

func TestMinify(t *testing.T) {
	src := "<table>\n  <tr>\n    <td>Hello   \n  world</td>\n  </tr>\n</table>\n<pre>  keep\n  this </pre>"
	out := run(t, Minify{}, src, config.Config{"minify": true})
	require.Equal(t, "<table><tr><td>Hello world</td></tr></table><pre>  keep\n  this </pre>", out)

	require.Equal(t, src, run(t, Minify{}, src, config.Config{}))

	for _, tc := range []struct{ in, want string }{
		{"<p><b>a</b> <i>b</i></p>", "<p><b>a</b> <i>b</i></p>"},
		{"<p>\n  <b>a</b>\n\t<a href=\"#\">b</a>\n</p>", "<p><b>a</b> <a href=\"#\">b</a></p>"},
		{"<td>\n  <span>x</span>\n</td>", "<td><span>x</span></td>"},
		{"<div>a</div>\n<div>b</div>", "<div>a</div><div>b</div>"},
		{"<span>a</span><!-- c -->\n<span>b</span>", "<span>a</span><!-- c --><span>b</span>"},
	} {
		require.Equal(t, tc.want, run(t, Minify{}, tc.in, config.Config{"minify": true}), tc.in)
	}
}

func TestDefaultPipelineWithProjectConfig(t *testing.T) {
	cfg := config.Config{
		"baseURL": "https://cdn.test",
		"minify":  true,
	}
	out, err := NewPipeline(nil).Process(context.Background(), "<div>\n  <img src=\"a.png\">\n</div>", cfg)
	require.NoError(t, err)
	require.Equal(t, `<div><img src="https://cdn.test/a.png"></div>`, out)
}
