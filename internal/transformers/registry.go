// Package transformers post-processes rendered HTML.
//
// Transformers register themselves in init() with a priority; the Pipeline
// runs them in priority order (ties broken by name). Each built-in is enabled
// by its own config key, and build.transformers, when present, restricts the
// set to the listed names.
package transformers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
)

// Processor is what the render pipeline calls after afterRender.
type Processor interface {
	Process(ctx context.Context, html string, cfg config.Config) (string, error)
}

// Transformer is one post-processing step.
type Transformer interface {
	Name() string
	Priority() int // lower runs first
	Transform(ctx context.Context, html string, cfg config.Config) (string, error)
}

// priorities (gaps allow future insertion)
const (
	prExtraAttributes  = 10
	prBaseURL          = 20
	prURLParameters    = 30
	prSixHex           = 40
	prRemoveAttributes = 50
	prReplaceStrings   = 60
	prMinify           = 90
)

const keyAllowlist = "build.transformers"

var reg = map[string]Transformer{}

// Register adds a transformer (idempotent by name). Intended to be called from init().
func Register(t Transformer) {
	if t != nil {
		if _, ok := reg[t.Name()]; !ok {
			reg[t.Name()] = t
		}
	}
}

// List returns registered transformers sorted by Priority (stable by name for equal priority).
func List() []Transformer {
	items := make([]Transformer, 0, len(reg))
	for _, t := range reg {
		items = append(items, t)
	}
	sortTransformers(items)
	return items
}

func sortTransformers(items []Transformer) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority() == items[j].Priority() {
			return items[i].Name() < items[j].Name()
		}
		return items[i].Priority() < items[j].Priority()
	})
}

// Pipeline runs a fixed, ordered set of transformers.
type Pipeline struct {
	steps  []Transformer
	logger *slog.Logger
}

// NewPipeline returns a pipeline over ts, or over every registered
// transformer when ts is empty.
func NewPipeline(logger *slog.Logger, ts ...Transformer) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	steps := append([]Transformer(nil), ts...)
	if len(steps) == 0 {
		steps = List()
	}
	sortTransformers(steps)
	return &Pipeline{steps: steps, logger: logger}
}

// Names lists the pipeline's transformers in execution order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.steps))
	for i, t := range p.steps {
		out[i] = t.Name()
	}
	return out
}

// Process implements Processor.
func (p *Pipeline) Process(ctx context.Context, html string, cfg config.Config) (string, error) {
	steps, err := p.selected(cfg)
	if err != nil {
		return "", err
	}
	for _, t := range steps {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := time.Now()
		out, err := t.Transform(ctx, html, cfg)
		if err != nil {
			return "", fmt.Errorf("transformer %s: %w", t.Name(), err)
		}
		p.logger.DebugContext(ctx, "Transformer applied",
			logfields.Transformer(t.Name()),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
			logfields.Bytes(len(out)))
		html = out
	}
	return html, nil
}

// selected applies the build.transformers allowlist.
func (p *Pipeline) selected(cfg config.Config) ([]Transformer, error) {
	if _, ok := cfg.Get(keyAllowlist); !ok {
		return p.steps, nil
	}
	include := map[string]struct{}{}
	for _, name := range cfg.Strings(keyAllowlist) {
		include[name] = struct{}{}
	}
	var out []Transformer
	for _, t := range p.steps {
		if _, ok := include[t.Name()]; ok {
			out = append(out, t)
			delete(include, t.Name())
		}
	}
	if len(include) > 0 {
		unknown := make([]string, 0, len(include))
		for name := range include {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown transformers in %s: %s", keyAllowlist, strings.Join(unknown, ", "))
	}
	return out, nil
}

// --- Test helpers ---

// SnapshotForTest exposes a registry snapshot (test only).
func SnapshotForTest() map[string]Transformer {
	cp := make(map[string]Transformer, len(reg))
	for k, v := range reg {
		cp[k] = v
	}
	return cp
}

// RestoreForTest restores a snapshot (test only).
func RestoreForTest(cp map[string]Transformer) { reg = cp }
