package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("empty input").Build(), 2},
		{"config", ConfigError("missing layout").Build(), 7},
		{"css", CSSError("compiler failed").Build(), 9},
		{"template", TemplateError("cyclic layout").Build(), 11},
		{"hook", HookError("afterRender failed").Build(), 11},
		{"unclassified", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	var code int
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(WrapError(errors.New("exit status 1"), CategoryCSS, "css compilation failed").Fatal().Build())

	require.Equal(t, 9, code)
	require.Contains(t, out.String(), "css compilation failed: exit status 1")
	require.Contains(t, logs.String(), "category=css")
}
