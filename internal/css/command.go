package css

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandCompiler runs a standalone CSS compiler binary. The entry stylesheet,
// the corpus and a generated config file are written to a temporary
// directory and the compiled CSS is read from stdout.
type CommandCompiler struct {
	// Binary is the executable to run. Defaults to "tailwindcss".
	Binary string
	// Args are appended after the generated input, config and content flags.
	Args []string
}

// Compile implements Compiler.
func (c *CommandCompiler) Compile(ctx context.Context, req Request) (string, error) {
	binary := c.Binary
	if binary == "" {
		binary = "tailwindcss"
	}
	binPath, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("css compiler %q not found: %w", binary, err)
	}

	dir, err := os.MkdirTemp("", "mailbuilder-css-*")
	if err != nil {
		return "", fmt.Errorf("create css work dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	entry := req.Entry
	if strings.TrimSpace(entry) == "" {
		entry = DefaultEntry
	}
	cfgJSON, err := json.Marshal(req.Config)
	if err != nil {
		return "", fmt.Errorf("encode css config: %w", err)
	}

	files := map[string]string{
		"input.css":          entry,
		"content.html":       req.Corpus,
		"tailwind.config.js": "module.exports = " + string(cfgJSON) + "\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}

	args := append([]string{
		"--input", filepath.Join(dir, "input.css"),
		"--config", filepath.Join(dir, "tailwind.config.js"),
		"--content", filepath.Join(dir, "content.html"),
	}, c.Args...)

	// #nosec G204 -- binPath comes from exec.LookPath on the configured binary
	cmd := exec.CommandContext(ctx, binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
