package sanitize

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validation errors for user-supplied paths.
var (
	// ErrPathTraversal indicates a path contains directory traversal sequences.
	ErrPathTraversal = errors.New("path contains directory traversal")

	// ErrEmptyPath indicates an empty path was provided.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrNotDocx indicates a template path without the .docx extension.
	ErrNotDocx = errors.New("template must be a .docx file")
)

// ValidatePath checks a path for security issues:
//   - No directory traversal (..)
//   - Resolves to an absolute path
//   - When allowedRoot is set, the path must resolve within it
//
// Returns the cleaned, absolute path.
func ValidatePath(path, allowedRoot string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: contains '..'", ErrPathTraversal)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if allowedRoot != "" {
		absRoot, err := filepath.Abs(allowedRoot)
		if err != nil {
			return "", fmt.Errorf("failed to resolve allowed root: %w", err)
		}
		rel, err := filepath.Rel(absRoot, absPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("%w: path escapes allowed root", ErrPathTraversal)
		}
	}

	return absPath, nil
}

// ValidateTemplatePath validates a template path and requires the .docx
// extension.
func ValidateTemplatePath(path string) (string, error) {
	abs, err := ValidatePath(path, "")
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(abs), Extension) {
		return "", fmt.Errorf("%w: %s", ErrNotDocx, filepath.Base(abs))
	}
	return abs, nil
}
