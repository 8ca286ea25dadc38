// Package css compiles the utility CSS a template needs.
//
// The render pipeline only depends on the Compiler interface. UtilityCompiler
// generates rules from a framework config map for the classes found in the
// corpus; CommandCompiler delegates to an external binary such as the
// standalone tailwindcss CLI.
package css

import "context"

// DefaultEntry is the entry stylesheet used when none is configured.
const DefaultEntry = "@tailwind components; @tailwind utilities;"

// Request is one compilation: the entry stylesheet, the HTML scanned for
// class usage and the framework configuration.
type Request struct {
	Entry  string
	Corpus string
	Config map[string]any
}

// Compiler turns a Request into CSS text.
type Compiler interface {
	Compile(ctx context.Context, req Request) (string, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, req Request) (string, error)

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
