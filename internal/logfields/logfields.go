package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRenderID    = "render_id"
	KeyTemplate    = "template"
	KeyLayout      = "layout"
	KeyStage       = "stage"
	KeyHook        = "hook"
	KeyTransformer = "transformer"
	KeyDurationMS  = "duration_ms"
	KeyBytes       = "bytes"
	KeyPath        = "path"
	KeyEnv         = "env"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RenderID(id string) slog.Attr { return slog.String(KeyRenderID, id) }
func Template(name string) slog.Attr { return slog.String(KeyTemplate, name) }
func Layout(path string) slog.Attr { return slog.String(KeyLayout, path) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func Hook(name string) slog.Attr { return slog.String(KeyHook, name) }
func Transformer(name string) slog.Attr { return slog.String(KeyTransformer, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Bytes(n int) slog.Attr { return slog.Int(KeyBytes, n) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Env(e string) slog.Attr { return slog.String(KeyEnv, e) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
