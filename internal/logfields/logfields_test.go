package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RenderID", KeyRenderID, "r1", RenderID("r1")},
		{"Template", KeyTemplate, "welcome.html", Template("welcome.html")},
		{"Layout", KeyLayout, "layouts/main.html", Layout("layouts/main.html")},
		{"Stage", KeyStage, "css", Stage("css")},
		{"Hook", KeyHook, "afterRender", Hook("afterRender")},
		{"Transformer", KeyTransformer, "sixHex", Transformer("sixHex")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Env", KeyEnv, "production", Env("production")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("expected empty error value, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("expected boom, got %q", got)
	}
}
