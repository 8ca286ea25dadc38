package render

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"escaped slash", `.w-1\/2{width:50%}`, `.w-1-2{width:50%}`},
		{"escaped colon", `.hover\:bg-red-500:hover{color:red}`, `.hover-bg-red-500:hover{color:red}`},
		{"chained variants", `.sm\:hover\:p-4{padding:4px}`, `.sm-hover-p-4{padding:4px}`},
		{"variant and fraction", `.sm\:w-1\/2{width:50%}`, `.sm-w-1-2{width:50%}`},
		{"repeated fraction", `.w-1\/2\/3{}`, `.w-1-2-3{}`},
		{"class attribute", `<div class="w-1/2 hover:bg-red-500">`, `<div class="w-1-2 hover-bg-red-500">`},
		{"single quoted", `<div class = 'sm:p-4'>`, `<div class = 'sm-p-4'>`},
		{"href untouched", `<a href="https://x.test/a:b">`, `<a href="https://x.test/a:b">`},
		{"plain css untouched", `a:hover{color:red}.p-4{padding:1rem}`, `a:hover{color:red}.p-4{padding:1rem}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestSanitizeDocument(t *testing.T) {
	in := `<style>.w-1\/2{width:50%}.hover\:underline:hover{text-decoration:underline}</style>` +
		`<td class="w-1/2 hover:underline">x</td>`
	out := Sanitize(in)
	require.Equal(t,
		`<style>.w-1-2{width:50%}.hover-underline:hover{text-decoration:underline}</style>`+
			`<td class="w-1-2 hover-underline">x</td>`,
		out)
}

func TestSanitizeIdempotentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	fragment := gen.OneConstOf(
		".", "w", "-", "1", "2", "_", " ", "{", "}",
		`\/`, `\:`, "/", ":", `\`,
		`class="`, `class='`, `"`, `'`, "hover", "sm", "<div ", ">",
	)
	markup := gen.SliceOf(fragment, reflect.TypeOf("")).Map(func(parts []string) string {
		return strings.Join(parts, "")
	})

	properties.Property("sanitizing twice equals sanitizing once", prop.ForAll(
		func(s string) bool {
			once := Sanitize(s)
			return Sanitize(once) == once
		},
		markup,
	))

	properties.Property("no slash or colon remains inside class attributes", prop.ForAll(
		func(s string) bool {
			for _, attr := range classAttrRE.FindAllString(Sanitize(s), -1) {
				value := attr[strings.IndexAny(attr, `"'`):]
				if strings.ContainsAny(value, "/:") {
					return false
				}
			}
			return true
		},
		markup,
	))

	properties.TestingRun(t)
}
