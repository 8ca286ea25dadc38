package frontmatter

import (
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/require"
)

func TestCanonicalAttributes(t *testing.T) {
	t.Run("empty map encodes to nothing", func(t *testing.T) {
		got, err := CanonicalAttributes(map[string]any{})
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("keys sorted at every level", func(t *testing.T) {
		got, err := CanonicalAttributes(map[string]any{
			"title":  "Hi",
			"build":  map[string]any{"layout": "l.html", "env": nil},
			"active": true,
		})
		require.NoError(t, err)
		require.Equal(t, "active: true\nbuild:\n  env: null\n  layout: l.html\ntitle: Hi", got)
	})

	t.Run("integer and map kinds encode alike", func(t *testing.T) {
		a, err := CanonicalAttributes(map[string]any{"n": 3, "m": map[any]any{"k": "v"}})
		require.NoError(t, err)
		b, err := CanonicalAttributes(map[string]any{"n": uint8(3), "m": map[string]string{"k": "v"}})
		require.NoError(t, err)
		require.Equal(t, a, b)
	})

	t.Run("numeric strings stay distinct from numbers", func(t *testing.T) {
		num, err := CanonicalAttributes(map[string]any{"n": 1})
		require.NoError(t, err)
		str, err := CanonicalAttributes(map[string]any{"n": "1"})
		require.NoError(t, err)
		require.NotEqual(t, num, str)
	})

	t.Run("timestamps normalised to UTC", func(t *testing.T) {
		zone := time.FixedZone("CET", 3600)
		a, err := CanonicalAttributes(map[string]any{"date": time.Date(2024, 1, 2, 11, 0, 0, 0, zone)})
		require.NoError(t, err)
		b, err := CanonicalAttributes(map[string]any{"date": time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
		require.Equal(t, a, b)
	})

	t.Run("unsupported values are reported with their path", func(t *testing.T) {
		_, err := CanonicalAttributes(map[string]any{"hooks": []any{"ok", func() {}}})
		require.ErrorIs(t, err, ErrUnsupportedAttribute)
		require.ErrorContains(t, err, "hooks: [1]")
	})
}

func TestFingerprint(t *testing.T) {
	t.Run("excludes fingerprint field", func(t *testing.T) {
		with, err := Fingerprint(Document{
			Attributes: map[string]any{"title": "Hi", mdfp.FingerprintField: "old"},
			Body:       "<p>x</p>",
		})
		require.NoError(t, err)
		without, err := Fingerprint(Document{
			Attributes: map[string]any{"title": "Hi"},
			Body:       "<p>x</p>",
		})
		require.NoError(t, err)
		require.Equal(t, without, with)
		require.Equal(t, mdfp.CalculateFingerprintFromParts("title: Hi", "<p>x</p>"), with)
	})

	t.Run("parsed front matter matches literal values", func(t *testing.T) {
		doc, err := Parse("---\nlayout: l.html\ncount: 2\n---\nbody")
		require.NoError(t, err)
		parsed, err := Fingerprint(doc)
		require.NoError(t, err)
		literal, err := Fingerprint(Document{Attributes: map[string]any{"count": int64(2), "layout": "l.html"}, Body: "body"})
		require.NoError(t, err)
		require.Equal(t, literal, parsed)
	})

	t.Run("body changes the fingerprint", func(t *testing.T) {
		fpA, err := Fingerprint(Document{Body: "x"})
		require.NoError(t, err)
		fpB, err := Fingerprint(Document{Body: "y"})
		require.NoError(t, err)
		require.NotEqual(t, fpA, fpB)
		require.Equal(t, FingerprintHTML("x"), fpA)
	})

	t.Run("unsupported attribute is an error", func(t *testing.T) {
		_, err := Fingerprint(Document{Attributes: map[string]any{"ch": make(chan int)}, Body: "x"})
		require.ErrorIs(t, err, ErrUnsupportedAttribute)
	})
}
