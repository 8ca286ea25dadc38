package render

import (
	"regexp"
	"strings"
)

var (
	// a class selector with escaped separators, e.g. .sm\:w-1\/2
	escapedSelectorRE = regexp.MustCompile(`\.[\w-]+(?:\\[:/][\w-]*)+`)
	slashAfterFragRE  = regexp.MustCompile(`(?:-|\\:)\w+\\/`)
	classAttrRE       = regexp.MustCompile(`class\s*=\s*(?:"[^"]*"|'[^']*')`)
)

// Sanitize rewrites escaped class names in generated CSS and class attributes
// into plain hyphenated names. It runs three ordered rewrites:
//
//  1. `\/` following `.<ident>-<frag>` becomes `-` (.w-1\/2 -> .w-1-2)
//  2. `\:` following `.<ident>` becomes `-` (.hover\:bg-red-500 -> .hover-bg-red-500)
//  3. every `/` and `:` inside class="..." or class='...' becomes `-`
//
// Escapes are rewritten for the whole selector at once, so chained variants
// and fractions converge in one pass and Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(html string) string {
	html = escapedSelectorRE.ReplaceAllStringFunc(html, replaceEscapedSlashes)
	html = escapedSelectorRE.ReplaceAllStringFunc(html, func(sel string) string {
		return strings.ReplaceAll(sel, `\:`, "-")
	})
	return classAttrRE.ReplaceAllStringFunc(html, func(attr string) string {
		return strings.NewReplacer("/", "-", ":", "-").Replace(attr)
	})
}

// replaceEscapedSlashes turns every `\/` of a selector that follows a
// hyphenated or variant-prefixed fragment into `-`, repeating until the
// selector is stable.
func replaceEscapedSlashes(sel string) string {
	for {
		next := slashAfterFragRE.ReplaceAllStringFunc(sel, func(m string) string {
			return strings.TrimSuffix(m, `\/`) + "-"
		})
		if next == sel {
			return sel
		}
		sel = next
	}
}
