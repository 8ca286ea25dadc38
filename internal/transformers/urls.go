package transformers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

func init() {
	Register(BaseURL{})
	Register(URLParameters{})
}

var (
	schemeRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

	defaultURLAttributes = map[string][]string{
		"a":      {"href"},
		"img":    {"src"},
		"link":   {"href"},
		"script": {"src"},
		"source": {"src", "srcset"},
		"video":  {"src", "poster"},
		"table":  {"background"},
		"td":     {"background"},
		"th":     {"background"},
	}
)

// BaseURL prefixes relative URLs with a base URL.
//
//	baseURL: https://cdn.example.com/emails/
//	baseURL: {url: https://cdn.example.com/, tags: [img]}
type BaseURL struct{}

func (BaseURL) Name() string  { return "baseURL" }
func (BaseURL) Priority() int { return prBaseURL }

func (BaseURL) Transform(_ context.Context, src string, cfg config.Config) (string, error) {
	base := cfg.String("baseURL")
	tags := defaultURLAttributes
	if m := cfg.Map("baseURL"); m != nil {
		base = cfg.String("baseURL.url")
		if only := cfg.Strings("baseURL.tags"); len(only) > 0 {
			tags = map[string][]string{}
			for _, t := range only {
				if attrs, ok := defaultURLAttributes[t]; ok {
					tags[t] = attrs
				}
			}
		}
	}
	if base == "" {
		return src, nil
	}

	return rewriteTags(src, func(tok *html.Token) bool {
		keys, ok := tags[tok.Data]
		if !ok {
			return false
		}
		changed := false
		for i, a := range tok.Attr {
			if !containsString(keys, a.Key) || !isRelativeURL(a.Val) {
				continue
			}
			tok.Attr[i].Val = joinURL(base, a.Val)
			changed = true
		}
		return changed
	})
}

func isRelativeURL(v string) bool {
	v = strings.TrimSpace(v)
	switch {
	case v == "",
		strings.HasPrefix(v, "//"),
		strings.HasPrefix(v, "#"),
		strings.HasPrefix(v, "{{"),
		schemeRE.MatchString(v):
		return false
	}
	return true
}

func joinURL(base, rel string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(strings.TrimSpace(rel), "/")
}

// URLParameters appends query parameters to absolute links. Parameters the
// link already carries are left alone.
//
//	urlParameters:
//	  utm_source: newsletter
//	  utm_medium: email
type URLParameters struct{}

func (URLParameters) Name() string  { return "urlParameters" }
func (URLParameters) Priority() int { return prURLParameters }

func (URLParameters) Transform(_ context.Context, src string, cfg config.Config) (string, error) {
	params := cfg.Map("urlParameters")
	if len(params) == 0 {
		return src, nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return rewriteTags(src, func(tok *html.Token) bool {
		if tok.Data != "a" {
			return false
		}
		href, ok := attr(tok, "href")
		if !ok {
			return false
		}
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return false
		}
		existing := u.Query()
		var add []string
		for _, k := range keys {
			if existing.Has(k) {
				continue
			}
			add = append(add, url.QueryEscape(k)+"="+url.QueryEscape(fmt.Sprint(params[k])))
		}
		if len(add) == 0 {
			return false
		}
		if u.RawQuery != "" {
			u.RawQuery += "&"
		}
		u.RawQuery += strings.Join(add, "&")
		setAttr(tok, "href", u.String())
		return true
	})
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
