package build

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

// DefaultSource is the template glob used when build.templates.source is unset.
const DefaultSource = "src/templates/**/*.html"

// Template is one discovered source file.
type Template struct {
	// Path is the slash-separated path relative to the project root.
	Path string
	// Output is the path relative to the destination directory.
	Output string
}

// SourcePatterns returns build.templates.source as a list of globs.
func SourcePatterns(cfg config.Config) []string {
	patterns := cfg.Strings("build.templates.source")
	if len(patterns) == 0 {
		return []string{DefaultSource}
	}
	return patterns
}

// Discover expands patterns against fsys. Outputs keep the path below the
// static prefix of the pattern that matched, optionally with a new extension.
func Discover(fsys fs.FS, patterns []string, extension string) ([]Template, error) {
	seen := map[string]bool{}
	var out []Template
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(path.Clean(pattern), "./")
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: invalid pattern %q", ErrDiscovery, pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDiscovery, pattern, err)
		}
		base, _ := doublestar.SplitPattern(pattern)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			info, err := fs.Stat(fsys, m)
			if err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			out = append(out, Template{Path: m, Output: outputPath(base, m, extension)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func outputPath(base, file, extension string) string {
	rel := file
	if base != "." && base != "" {
		rel = strings.TrimPrefix(strings.TrimPrefix(file, base), "/")
	}
	if extension != "" {
		rel = strings.TrimSuffix(rel, path.Ext(rel)) + "." + strings.TrimPrefix(extension, ".")
	}
	return rel
}
