// Package validation checks names and paths that come from the server or
// from pasted user input before they touch the filesystem.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// invisible lists zero-width characters that survive copy and paste.
var invisible = strings.NewReplacer(
	"\u200B", "", // zero-width space
	"\u200C", "", // zero-width non-joiner
	"\u200D", "", // zero-width joiner
	"\uFEFF", "", // BOM
	"\u00AD", "", // soft hyphen
	"\u2060", "", // word joiner
)

// StripInvisible removes zero-width characters and surrounding whitespace.
func StripInvisible(s string) string {
	return strings.TrimSpace(invisible.Replace(s))
}

// ValidateFilename rejects names that are empty, contain a path separator or
// a NUL byte, or are "." or "..".
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("filename contains null byte: %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("filename cannot contain path separators: %s", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("filename cannot be %q", name)
	}
	return nil
}

// ValidatePathInDirectory ensures path, resolved against baseDir, stays
// inside baseDir.
func ValidatePathInDirectory(path, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	base, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}
	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(base, resolved)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}
	return nil
}
