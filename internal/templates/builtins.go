package templates

import (
	"fmt"

	"github.com/mitsuhiko/minijinja/minijinja-go/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func builtinFunctions() map[string]Function {
	unconfigured := func(name string) Function {
		return func(*minijinja.State, []minijinja.Value, map[string]minijinja.Value) (minijinja.Value, error) {
			return minijinja.FromString(""), fmt.Errorf("%s is not configured for this engine", name)
		}
	}
	return map[string]Function{
		"markdown":       unconfigured("markdown"),
		"markdownInline": unconfigured("markdownInline"),
	}
}

func builtinFilters() map[string]Filter {
	caser := cases.Title(language.Und)
	return map[string]Filter{
		"title": StringFilter(func(s string) (string, error) { return caser.String(s), nil }),
	}
}

// StringFunction adapts fn to a template function taking one string argument.
// The result is marked safe.
func StringFunction(fn func(string) (string, error)) Function {
	return func(_ *minijinja.State, args []minijinja.Value, _ map[string]minijinja.Value) (minijinja.Value, error) {
		if len(args) != 1 {
			return minijinja.FromString(""), fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		out, err := fn(asString(args[0]))
		if err != nil {
			return minijinja.FromString(""), err
		}
		return minijinja.FromSafeString(out), nil
	}
}

// StringFilter adapts fn to a filter over strings. The result is marked safe.
func StringFilter(fn func(string) (string, error)) Filter {
	return func(_ *minijinja.State, value minijinja.Value, _ []minijinja.Value) (minijinja.Value, error) {
		out, err := fn(asString(value))
		if err != nil {
			return minijinja.FromString(""), err
		}
		return minijinja.FromSafeString(out), nil
	}
}

func asString(v minijinja.Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	if v.Kind() == minijinja.KindUndefined || v.Kind() == minijinja.KindNone {
		return ""
	}
	return fmt.Sprint(v)
}
