package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// WriteOutput writes content to relativePath under dir, replacing any
// existing file. The path must stay inside dir.
func WriteOutput(dir, relativePath, content string) (string, error) {
	return writeFile(dir, relativePath, content, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

// WriteNewFile writes content to relativePath under dir and fails if the file
// already exists. Used for scaffolding, which must never clobber user files.
func WriteNewFile(dir, relativePath, content string) (string, error) {
	return writeFile(dir, relativePath, content, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
}

func writeFile(dir, relativePath, content string, flag int) (string, error) {
	fullPath, err := safeJoin(dir, relativePath)
	if err != nil {
		return "", err
	}

	if err = os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("%w: create output directory: %w", ErrWrite, err)
	}

	// #nosec G304 -- fullPath is validated to stay under dir.
	file, err := os.OpenFile(fullPath, flag, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) || errors.Is(err, syscall.EEXIST) {
			return "", fmt.Errorf("%w: file already exists: %s", ErrWrite, fullPath)
		}
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if _, err := file.WriteString(content); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return fullPath, nil
}

func safeJoin(dir, relativePath string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: output directory is required", ErrWrite)
	}
	if relativePath == "" {
		return "", fmt.Errorf("%w: output path is required", ErrWrite)
	}

	cleanRel := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleanRel) || strings.HasPrefix(cleanRel, "..") {
		return "", fmt.Errorf("%w: output path must be relative to %s", ErrWrite, dir)
	}

	fullPath := filepath.Join(dir, cleanRel)
	rel, err := filepath.Rel(dir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: output path escapes %s", ErrWrite, dir)
	}
	return fullPath, nil
}
