// Package config holds the effective configuration of a render invocation and
// the loader for project configuration files.
//
// Configuration is an untyped tree (map[string]any) because documents may
// override any key through their front matter and templates read arbitrary
// keys through the page variable.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	keyLayout   = "layout"
	keyMerged   = "isMerged"
	keyMarkdown = "markdown"

	pathBuildLayout = "build.layout"
	pathEngine      = "build.nunjucks"
	pathTags        = "build.nunjucks.tags"
)

// Config is the configuration tree of one render invocation.
type Config map[string]any

// Tags are the delimiter tokens understood by the template engine.
type Tags struct {
	BlockStart    string
	BlockEnd      string
	VariableStart string
	VariableEnd   string
	CommentStart  string
	CommentEnd    string
}

// DefaultTags returns the delimiters used when build.nunjucks.tags is absent.
func DefaultTags() Tags {
	return Tags{
		BlockStart:    "{%",
		BlockEnd:      "%}",
		VariableStart: "{{",
		VariableEnd:   "}}",
		CommentStart:  "{#",
		CommentEnd:    "#}",
	}
}

// Get resolves a dotted path ("build.nunjucks.tags") through nested maps.
func (c Config) Get(path string) (any, bool) {
	var cur any = map[string]any(c)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at path formatted as a string, or "" when absent.
func (c Config) String(path string) string {
	v, ok := c.Get(path)
	if !ok || v == nil {
		return ""
	}
	switch vv := v.(type) {
	case string:
		return vv
	case int:
		return strconv.Itoa(vv)
	case bool:
		return strconv.FormatBool(vv)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	default:
		return fmt.Sprint(vv)
	}
}

// Bool returns the value at path interpreted as a boolean.
func (c Config) Bool(path string) bool {
	v, ok := c.Get(path)
	if !ok {
		return false
	}
	switch vv := v.(type) {
	case bool:
		return vv
	case string:
		b, _ := strconv.ParseBool(vv)
		return b
	default:
		return false
	}
}

// Map returns the nested map at path, or nil.
func (c Config) Map(path string) map[string]any {
	v, ok := c.Get(path)
	if !ok {
		return nil
	}
	m, _ := asMap(v)
	return m
}

// Strings returns the list at path with every item formatted as a string.
func (c Config) Strings(path string) []string {
	v, ok := c.Get(path)
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return append([]string(nil), vv...)
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{vv}
	default:
		return nil
	}
}

// Layout returns the layout path: the top-level layout key, falling back to build.layout.
func (c Config) Layout() string {
	if l := c.String(keyLayout); l != "" {
		return l
	}
	return c.String(pathBuildLayout)
}

// IsMerged reports whether the config is already the result of a merge.
func (c Config) IsMerged() bool {
	return c.Bool(keyMerged)
}

// Markdown returns the markdown renderer options.
func (c Config) Markdown() map[string]any {
	return c.Map(keyMarkdown)
}

// Engine returns the template engine settings (build.nunjucks).
func (c Config) Engine() map[string]any {
	return c.Map(pathEngine)
}

// Tags returns the configured delimiters, each falling back to its default.
func (c Config) Tags() Tags {
	tags := DefaultTags()
	m := c.Map(pathTags)
	if m == nil {
		return tags
	}
	set := func(dst *string, key string) {
		if s, ok := m[key].(string); ok && s != "" {
			*dst = s
		}
	}
	set(&tags.BlockStart, "blockStart")
	set(&tags.BlockEnd, "blockEnd")
	set(&tags.VariableStart, "variableStart")
	set(&tags.VariableEnd, "variableEnd")
	set(&tags.CommentStart, "commentStart")
	set(&tags.CommentEnd, "commentEnd")
	return tags
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Config:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
