package css

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// ScanClasses returns the distinct class names used in corpus, sorted.
func ScanClasses(corpus string) []string {
	seen := map[string]struct{}{}
	z := html.NewTokenizer(strings.NewReader(corpus))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		_, hasAttr := z.TagName()
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			if string(key) == "class" {
				for _, c := range strings.Fields(string(val)) {
					seen[c] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
