package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	fm, body, had, style, err := Split(input)
	_ = fm
	_ = body
	_ = style
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF_SplitsWithEmptyBody(t *testing.T) {
	fm, body, had, _, err := Split([]byte("---\nlayout: main.html\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("layout: main.html\n"), fm)
	require.Empty(t, body)
}

func TestParse_WithLayout_ReturnsAttributesAndBody(t *testing.T) {
	doc, err := Parse("---\nlayout: layouts/main.html\ntitle: Hi\n---\n<p>Body</p>\n")
	require.NoError(t, err)
	require.True(t, doc.HadFrontMatter)
	require.Equal(t, "Hi", doc.Attributes["title"])
	require.Equal(t, "<p>Body</p>\n", doc.Body)

	layout, ok := doc.Layout()
	require.True(t, ok)
	require.Equal(t, "layouts/main.html", layout)
}

func TestParse_NoFrontMatter_BodyIsWholeInput(t *testing.T) {
	doc, err := Parse("<p>Hello</p>")
	require.NoError(t, err)
	require.False(t, doc.HadFrontMatter)
	require.Empty(t, doc.Attributes)
	require.Equal(t, "<p>Hello</p>", doc.Body)

	_, ok := doc.Layout()
	require.False(t, ok)
}

func TestParse_UnclosedFrontMatter_TreatedAsBody(t *testing.T) {
	input := "---\nlayout: x\n<p>never closed</p>"
	doc, err := Parse(input)
	require.NoError(t, err)
	require.False(t, doc.HadFrontMatter)
	require.Equal(t, input, doc.Body)
}

func TestParse_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := Parse("---\n: not yaml\n---\nbody")
	require.Error(t, err)
}

func TestDocumentLayout_IgnoresNonStringValues(t *testing.T) {
	doc := Document{Attributes: map[string]any{"layout": 42}}
	_, ok := doc.Layout()
	require.False(t, ok)

	doc = Document{Attributes: map[string]any{"layout": ""}}
	_, ok = doc.Layout()
	require.False(t, ok)
}

func TestParseYAML_ValidYAML_ReturnsMap(t *testing.T) {
	fm := []byte("uid: abc\ntags:\n  - one\n")

	fields, err := ParseYAML(fm)
	require.NoError(t, err)
	require.Equal(t, "abc", fields["uid"])
	require.Equal(t, []any{"one"}, fields["tags"])
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestParseYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := ParseYAML([]byte(": not yaml"))
	require.Error(t, err)
}
