package transformers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// rewriteTags streams src through the HTML tokenizer and lets fn edit every
// start tag. Tokens fn leaves untouched are copied byte for byte, so entities
// and template leftovers in text survive unchanged.
func rewriteTags(src string, fn func(tok *html.Token) bool) (string, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	b.Grow(len(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return b.String(), nil
		}
		raw := string(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.WriteString(raw)
			continue
		}
		tok := z.Token()
		if fn(&tok) {
			b.WriteString(tok.String())
		} else {
			b.WriteString(raw)
		}
	}
}

func attr(tok *html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(tok *html.Token, key, val string) {
	for i := range tok.Attr {
		if tok.Attr[i].Key == key {
			tok.Attr[i].Val = val
			return
		}
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: key, Val: val})
}

// nodeIndexAttr tags every start tag of a marked copy with its position in
// the token stream so parsed nodes can be traced back to the source.
const nodeIndexAttr = "data-mailbuilder-node"

// matchStartTags parses src and runs each CSS selector over the tree. The
// result maps the index of every matched start tag (as counted by
// rewriteTags) to the selectors that matched it, in the given order.
// Elements the parser synthesizes have no source tag and are skipped.
func matchStartTags(src string, selectors []string) (map[int][]string, error) {
	compiled := make([]cascadia.Selector, len(selectors))
	for i, sel := range selectors {
		c, err := cascadia.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", sel, err)
		}
		compiled[i] = c
	}

	idx := 0
	marked, err := rewriteTags(src, func(tok *html.Token) bool {
		tok.Attr = append(tok.Attr, html.Attribute{Key: nodeIndexAttr, Val: strconv.Itoa(idx)})
		idx++
		return true
	})
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(marked))
	if err != nil {
		return nil, err
	}

	found := map[int][]string{}
	for i, sel := range compiled {
		for _, n := range sel.MatchAll(doc) {
			pos, ok := nodeIndex(n)
			if !ok {
				continue
			}
			found[pos] = append(found[pos], selectors[i])
		}
	}
	return found, nil
}

func nodeIndex(n *html.Node) (int, bool) {
	for _, a := range n.Attr {
		if a.Key == nodeIndexAttr {
			pos, err := strconv.Atoi(a.Val)
			return pos, err == nil
		}
	}
	return 0, false
}
