package transformers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

func init() {
	Register(ReplaceStrings{})
	Register(Minify{})
}

// ReplaceStrings applies regular expression replacements to the whole document.
// Patterns run in lexical order.
//
//	replaceStrings:
//	  '\{\{\s*unsubscribe\s*\}\}': '%unsubscribe_url%'
type ReplaceStrings struct{}

func (ReplaceStrings) Name() string  { return "replaceStrings" }
func (ReplaceStrings) Priority() int { return prReplaceStrings }

func (ReplaceStrings) Transform(_ context.Context, src string, cfg config.Config) (string, error) {
	pairs := cfg.Map("replaceStrings")
	if len(pairs) == 0 {
		return src, nil
	}
	patterns := make([]string, 0, len(pairs))
	for p := range pairs {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return "", fmt.Errorf("invalid replaceStrings pattern %q: %w", p, err)
		}
		repl := ""
		if v := pairs[p]; v != nil {
			repl = fmt.Sprint(v)
		}
		src = re.ReplaceAllString(src, repl)
	}
	return src, nil
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Minify collapses whitespace. Whitespace-only text between two inline
// neighbours becomes a single space; next to a block-level tag, a comment or
// the document edge it is removed. pre, textarea, script and style content
// is left untouched.
type Minify struct{}

func (Minify) Name() string  { return "minify" }
func (Minify) Priority() int { return prMinify }

func (Minify) Transform(_ context.Context, src string, cfg config.Config) (string, error) {
	if !cfg.Bool("minify") {
		return src, nil
	}

	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	b.Grow(len(src))
	preserve := 0
	prevBlock, pending := true, false
	flush := func(nextBlock bool) {
		if pending && !prevBlock && !nextBlock {
			b.WriteByte(' ')
		}
		pending = false
	}
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return strings.TrimSpace(b.String()), nil
		}
		raw := string(z.Raw())
		switch tt {
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			block := blockLevel[atom.Lookup(name)]
			flush(block)
			switch {
			case tt == html.StartTagToken && keepsWhitespace(name):
				preserve++
			case tt == html.EndTagToken && keepsWhitespace(name) && preserve > 0:
				preserve--
			}
			b.WriteString(raw)
			prevBlock = block
		case html.TextToken:
			switch {
			case preserve > 0:
				b.WriteString(raw)
			case strings.TrimSpace(raw) == "":
				pending = true
				continue
			default:
				flush(false)
				b.WriteString(whitespaceRE.ReplaceAllString(raw, " "))
			}
			prevBlock = false
		default:
			flush(true)
			b.WriteString(raw)
			prevBlock = true
		}
	}
}

func keepsWhitespace(name []byte) bool {
	switch string(name) {
	case "pre", "textarea", "script", "style":
		return true
	}
	return false
}

// blockLevel lists the tags whitespace next to is not rendered.
var blockLevel = map[atom.Atom]bool{
	atom.Html: true, atom.Head: true, atom.Body: true, atom.Title: true,
	atom.Meta: true, atom.Link: true, atom.Style: true, atom.Script: true,
	atom.Div: true, atom.P: true, atom.Center: true, atom.Blockquote: true,
	atom.Pre: true, atom.Hr: true, atom.Br: true, atom.Address: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Caption: true, atom.Colgroup: true, atom.Col: true,
	atom.Thead: true, atom.Tbody: true, atom.Tfoot: true, atom.Tr: true, atom.Td: true, atom.Th: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Nav: true, atom.Main: true, atom.Aside: true, atom.Figure: true, atom.Figcaption: true,
	atom.Form: true, atom.Fieldset: true,
}
