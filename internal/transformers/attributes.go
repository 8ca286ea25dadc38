package transformers

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

func init() {
	Register(ExtraAttributes{})
	Register(SixHex{})
	Register(RemoveAttributes{})
}

// ExtraAttributes adds attributes to elements matching a CSS selector when
// they are absent.
//
//	extraAttributes:
//	  table: {cellpadding: 0, cellspacing: 0, role: none}
//	  img: {alt: ""}
//	  "td, th": {valign: top}
type ExtraAttributes struct{}

func (ExtraAttributes) Name() string  { return "extraAttributes" }
func (ExtraAttributes) Priority() int { return prExtraAttributes }

func (ExtraAttributes) Transform(_ context.Context, src string, cfg config.Config) (string, error) {
	rules := cfg.Map("extraAttributes")
	if len(rules) == 0 {
		return src, nil
	}
	selectors := make([]string, 0, len(rules))
	for sel := range rules {
		selectors = append(selectors, sel)
	}
	sort.Strings(selectors)

	matched, err := matchStartTags(src, selectors)
	if err != nil {
		return "", fmt.Errorf("extraAttributes: %w", err)
	}

	idx := -1
	return rewriteTags(src, func(tok *html.Token) bool {
		idx++
		changed := false
		for _, sel := range matched[idx] {
			attrs, ok := rules[sel].(map[string]any)
			if !ok {
				continue
			}
			keys := make([]string, 0, len(attrs))
			for k := range attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if _, exists := attr(tok, k); exists {
					continue
				}
				val := ""
				if v := attrs[k]; v != nil {
					val = fmt.Sprint(v)
				}
				setAttr(tok, k, val)
				changed = true
			}
		}
		return changed
	})
}

var shortHexRE = regexp.MustCompile(`^#([0-9a-fA-F])([0-9a-fA-F])([0-9a-fA-F])$`)

// SixHex expands three-digit hex colors in bgcolor and color attributes,
// which several mail clients do not understand.
type SixHex struct{}

func (SixHex) Name() string  { return "sixHex" }
func (SixHex) Priority() int { return prSixHex }

func (SixHex) Transform(_ context.Context, src string, _ config.Config) (string, error) {
	return rewriteTags(src, func(tok *html.Token) bool {
		changed := false
		for i, a := range tok.Attr {
			if a.Key != "bgcolor" && a.Key != "color" {
				continue
			}
			if m := shortHexRE.FindStringSubmatch(a.Val); m != nil {
				tok.Attr[i].Val = "#" + m[1] + m[1] + m[2] + m[2] + m[3] + m[3]
				changed = true
			}
		}
		return changed
	})
}

// RemoveAttributes drops attributes. A plain name removes the attribute when
// its value is empty; a {name, value} entry removes it when the value matches.
//
//	removeAttributes:
//	  - style
//	  - {name: role, value: none}
type RemoveAttributes struct{}

func (RemoveAttributes) Name() string  { return "removeAttributes" }
func (RemoveAttributes) Priority() int { return prRemoveAttributes }

type removal struct {
	name     string
	value    string
	anyValue bool
}

func (RemoveAttributes) Transform(_ context.Context, src string, cfg config.Config) (string, error) {
	raw, ok := cfg.Get("removeAttributes")
	if !ok {
		return src, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return "", fmt.Errorf("removeAttributes must be a list, got %T", raw)
	}
	removals := make([]removal, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			removals = append(removals, removal{name: v})
		case map[string]any:
			name, _ := v["name"].(string)
			if name == "" {
				return "", fmt.Errorf("removeAttributes entry without name: %v", v)
			}
			value, has := v["value"]
			r := removal{name: name, anyValue: has && value == "*"}
			if has && !r.anyValue {
				r.value = fmt.Sprint(value)
			}
			removals = append(removals, r)
		default:
			return "", fmt.Errorf("removeAttributes entry must be a name or a map, got %T", item)
		}
	}

	return rewriteTags(src, func(tok *html.Token) bool {
		kept := tok.Attr[:0:0]
		for _, a := range tok.Attr {
			if !removes(removals, a) {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(tok.Attr) {
			return false
		}
		tok.Attr = kept
		return true
	})
}

func removes(removals []removal, a html.Attribute) bool {
	for _, r := range removals {
		if r.name != a.Key {
			continue
		}
		if r.anyValue || r.value == a.Val {
			return true
		}
	}
	return false
}
