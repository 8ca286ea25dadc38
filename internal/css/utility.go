package css

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	cssparse "github.com/tdewolff/parse/v2/css"
)

const layerAtRule = "@tailwind"

// UtilityCompiler generates CSS for the utility classes a corpus uses.
//
// Recognised config keys:
//
//	utilities:  {class: {property: value}}
//	components: {class: {property: value}}
//	variants:   {prefix: ":hover" | "@media (...)"}
//	prefix:     class prefix stripped before lookup
//	important:  append !important to every declaration
//
// Selectors are escaped the way CSS requires, so "w-1/2" becomes ".w-1\/2"
// and "hover:underline" becomes ".hover\:underline:hover".
type UtilityCompiler struct{}

// NewUtilityCompiler returns the built-in compiler.
func NewUtilityCompiler() *UtilityCompiler {
	return &UtilityCompiler{}
}

type frameworkConfig struct {
	utilities  map[string]map[string]string
	components map[string]map[string]string
	variants   map[string]string
	prefix     string
	important  bool
}

type rule struct {
	media    string
	selector string
	decls    string
}

// Compile implements Compiler.
func (c *UtilityCompiler) Compile(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cfg, err := parseFrameworkConfig(req.Config)
	if err != nil {
		return "", err
	}

	entry := req.Entry
	if strings.TrimSpace(entry) == "" {
		entry = DefaultEntry
	}
	classes := ScanClasses(req.Corpus)

	out, err := expandLayers(entry, func(layer string) (string, error) {
		switch layer {
		case "base":
			return "", nil
		case "components":
			return renderRules(cfg.rules(classes, cfg.components)), nil
		case "utilities":
			return renderRules(cfg.rules(classes, cfg.utilities)), nil
		default:
			return "", fmt.Errorf("unknown layer %q in @tailwind directive", layer)
		}
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

type cssToken struct {
	tt   cssparse.TokenType
	text string
}

// expandLayers replaces every "@tailwind <layer>;" at-rule in entry with the
// output of layer. The entry is tokenized first, so the same text inside a
// comment, a string or an url() is left alone.
func expandLayers(entry string, layer func(name string) (string, error)) (string, error) {
	l := cssparse.NewLexer(parse.NewInputString(entry))
	var toks []cssToken
	for {
		tt, data := l.Next()
		if tt == cssparse.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("tokenize css entry: %w", err)
			}
			break
		}
		toks = append(toks, cssToken{tt: tt, text: string(data)})
	}

	var b strings.Builder
	b.Grow(len(entry))
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.tt != cssparse.AtKeywordToken || !strings.EqualFold(tok.text, layerAtRule) {
			b.WriteString(tok.text)
			continue
		}
		j := skipTokens(toks, i+1, cssparse.WhitespaceToken, cssparse.CommentToken)
		if j >= len(toks) || toks[j].tt != cssparse.IdentToken {
			return "", fmt.Errorf("%s directive without a layer name", layerAtRule)
		}
		generated, err := layer(toks[j].text)
		if err != nil {
			return "", err
		}
		b.WriteString(generated)

		i = j
		if k := skipTokens(toks, j+1, cssparse.WhitespaceToken); k < len(toks) && toks[k].tt == cssparse.SemicolonToken {
			i = k
		}
	}
	return b.String(), nil
}

func skipTokens(toks []cssToken, i int, skip ...cssparse.TokenType) int {
	for i < len(toks) {
		found := false
		for _, tt := range skip {
			if toks[i].tt == tt {
				found = true
				break
			}
		}
		if !found {
			return i
		}
		i++
	}
	return i
}

func parseFrameworkConfig(m map[string]any) (frameworkConfig, error) {
	cfg := frameworkConfig{variants: map[string]string{}}
	var err error
	if cfg.utilities, err = declarationTable(m, "utilities"); err != nil {
		return cfg, err
	}
	if cfg.components, err = declarationTable(m, "components"); err != nil {
		return cfg, err
	}
	if raw, ok := m["variants"]; ok {
		vm, ok := raw.(map[string]any)
		if !ok {
			return cfg, fmt.Errorf("variants must be a map, got %T", raw)
		}
		for name, v := range vm {
			cfg.variants[name] = fmt.Sprint(v)
		}
	}
	cfg.prefix, _ = m["prefix"].(string)
	cfg.important, _ = m["important"].(bool)
	return cfg, nil
}

func declarationTable(m map[string]any, key string) (map[string]map[string]string, error) {
	out := map[string]map[string]string{}
	raw, ok := m[key]
	if !ok || raw == nil {
		return out, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a map, got %T", key, raw)
	}
	for class, decls := range table {
		dm, ok := decls.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.%s must be a map of declarations, got %T", key, class, decls)
		}
		props := make(map[string]string, len(dm))
		for prop, val := range dm {
			props[prop] = fmt.Sprint(val)
		}
		out[class] = props
	}
	return out, nil
}

// rules returns one rule per used class that resolves in table.
func (f frameworkConfig) rules(classes []string, table map[string]map[string]string) []rule {
	var out []rule
	for _, class := range classes {
		parts := strings.Split(class, ":")
		base := strings.TrimPrefix(parts[len(parts)-1], f.prefix)
		if f.prefix != "" && base == parts[len(parts)-1] {
			continue
		}
		decls, ok := table[base]
		if !ok {
			continue
		}

		selector := "." + EscapeClass(class)
		media := ""
		known := true
		for _, variant := range parts[:len(parts)-1] {
			v, ok := f.variants[variant]
			switch {
			case !ok:
				known = false
			case strings.HasPrefix(v, "@media"):
				media = v
			default:
				selector += v
			}
		}
		if !known {
			continue
		}
		out = append(out, rule{media: media, selector: selector, decls: f.declarations(decls)})
	}
	return out
}

func (f frameworkConfig) declarations(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := props[k]
		if f.important {
			v += " !important"
		}
		parts = append(parts, k+":"+v)
	}
	return strings.Join(parts, ";")
}

// renderRules prints plain rules first, then one block per media query.
func renderRules(rules []rule) string {
	var plain []string
	byMedia := map[string][]string{}
	for _, r := range rules {
		text := r.selector + "{" + r.decls + "}"
		if r.media == "" {
			plain = append(plain, text)
			continue
		}
		byMedia[r.media] = append(byMedia[r.media], text)
	}

	medias := make([]string, 0, len(byMedia))
	for m := range byMedia {
		medias = append(medias, m)
	}
	sort.Strings(medias)

	var b strings.Builder
	b.WriteString(strings.Join(plain, "\n"))
	for _, m := range medias {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m + "{" + strings.Join(byMedia[m], "") + "}")
	}
	return b.String()
}

// EscapeClass escapes a class name for use in a CSS selector.
func EscapeClass(class string) string {
	var b strings.Builder
	for i, r := range class {
		switch {
		case r == '-' || r == '_' || r >= 0x80,
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, "\\3%c ", r)
				continue
			}
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
