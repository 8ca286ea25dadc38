package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_ExpandsEnvAndAppliesOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MAILBUILDER_TEST_BASE_URL", "https://cdn.example.com/")

	base := filepath.Join(dir, "config.yaml")
	writeFile(t, base, "build:\n  layout: src/layouts/main.html\nbaseURL: ${MAILBUILDER_TEST_BASE_URL}\nminify: false\n")
	writeFile(t, filepath.Join(dir, "config.production.yaml"), "minify: true\n")

	cfg, err := Load(base, "")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/", cfg.String("baseURL"))
	require.False(t, cfg.Bool("minify"))

	cfg, err = Load(base, "production")
	require.NoError(t, err)
	require.True(t, cfg.Bool("minify"))
	require.Equal(t, "src/layouts/main.html", cfg.Layout())
	require.False(t, cfg.IsMerged())
}

func TestLoad_MissingOverlayIsIgnored(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.yaml")
	writeFile(t, base, "title: Hello\n")

	cfg, err := Load(base, "staging")
	require.NoError(t, err)
	require.Equal(t, "Hello", cfg.String("title"))
}

func TestLoad_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MAILBUILDER_TEST_EXISTING", "process")
	writeFile(t, filepath.Join(dir, ".env"), "MAILBUILDER_TEST_EXISTING=file\nMAILBUILDER_TEST_FROM_FILE=loaded\n")
	t.Cleanup(func() { _ = os.Unsetenv("MAILBUILDER_TEST_FROM_FILE") })

	base := filepath.Join(dir, "config.yaml")
	writeFile(t, base, "a: ${MAILBUILDER_TEST_EXISTING}\nb: ${MAILBUILDER_TEST_FROM_FILE}\n")

	cfg, err := Load(base, "")
	require.NoError(t, err)
	require.Equal(t, "process", cfg.String("a"))
	require.Equal(t, "loaded", cfg.String("b"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "configuration file not found")
}

func TestInit_RefusesToOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	require.Equal(t, "src/layouts/main.html", cfg.Layout())
}
