package templates

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

type delimiterPair struct {
	start, end       string
	defStart, defEnd string
}

// normalizeDelimiters rewrites statements written with the configured tags
// into the engine's default syntax. Text between statements that contains a
// default delimiter is wrapped in a raw block so it stays literal.
func (e *Engine) normalizeDelimiters(src string) string {
	def := config.DefaultTags()
	if e.tags == def {
		return src
	}

	pairs := []delimiterPair{
		{e.tags.CommentStart, e.tags.CommentEnd, def.CommentStart, def.CommentEnd},
		{e.tags.BlockStart, e.tags.BlockEnd, def.BlockStart, def.BlockEnd},
		{e.tags.VariableStart, e.tags.VariableEnd, def.VariableStart, def.VariableEnd},
	}
	// Longest start first so "{{" is not taken for a "{" prefix.
	sort.SliceStable(pairs, func(i, j int) bool { return len(pairs[i].start) > len(pairs[j].start) })

	var out, text strings.Builder
	flush := func() {
		s := text.String()
		text.Reset()
		if s == "" {
			return
		}
		if strings.Contains(s, def.BlockStart) || strings.Contains(s, def.VariableStart) || strings.Contains(s, def.CommentStart) {
			out.WriteString(def.BlockStart + " raw " + def.BlockEnd + s + def.BlockStart + " endraw " + def.BlockEnd)
			return
		}
		out.WriteString(s)
	}

	for i := 0; i < len(src); {
		matched := false
		for _, p := range pairs {
			if p.start == "" || !strings.HasPrefix(src[i:], p.start) {
				continue
			}
			inner := src[i+len(p.start):]
			end := strings.Index(inner, p.end)
			if end < 0 {
				continue
			}
			flush()
			out.WriteString(p.defStart + inner[:end] + p.defEnd)
			i += len(p.start) + end + len(p.end)
			matched = true
			break
		}
		if !matched {
			text.WriteByte(src[i])
			i++
		}
	}
	flush()
	return out.String()
}
