package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML project configuration file.
//
// .env and .env.local next to the file are loaded first (existing process
// variables win) and ${VAR} references in the YAML are expanded. When env is
// set and config.<env>.yaml exists beside the base file, it is layered on top.
func Load(configPath, env string) (Config, error) {
	dir := filepath.Dir(configPath)
	loadEnvFiles(dir)

	base, err := readFile(configPath)
	if err != nil {
		return nil, err
	}

	if env == "" {
		return base, nil
	}

	ext := filepath.Ext(configPath)
	overlayPath := strings.TrimSuffix(configPath, ext) + "." + env + ext
	overlay, err := readFile(overlayPath)
	if errors.Is(err, fs.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("Applying environment config overlay", "path", overlayPath, "env", env)
	return Overlay(base, overlay), nil
}

func readFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return Config(raw), nil
}

// loadEnvFiles loads .env then .env.local without overriding the environment.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}

// Init writes a starter project configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	starter := map[string]any{
		"build": map[string]any{
			"layout": "src/layouts/main.html",
			"templates": map[string]any{
				"source":      "src/templates/**/*.html",
				"destination": "build_{env}",
			},
			"tailwind": map[string]any{
				"css": "@tailwind components; @tailwind utilities;",
				"config": map[string]any{
					"utilities": map[string]any{
						"text-center": map[string]any{"text-align": "center"},
						"w-full":      map[string]any{"width": "100%"},
						"w-1/2":       map[string]any{"width": "50%"},
					},
					"variants": map[string]any{
						"hover": ":hover",
						"sm":    "@media (max-width: 600px)",
					},
				},
			},
		},
		"markdown": map[string]any{"gfm": true},
		"minify":   false,
	}

	data, err := yaml.Marshal(starter)
	if err != nil {
		return fmt.Errorf("marshal starter config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
