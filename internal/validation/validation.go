// Package validation checks identifiers and paths that reach the data tree
// from user input (CLI arguments, HTTP routes, watcher events) so they cannot
// escape the data root.
package validation

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

const (
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// MaxSlugLength is the maximum length of a book or parasha id.
	MaxSlugLength = 64
	// MaxChapter bounds chapter numbers accepted from input.
	MaxChapter = 999
	// MaxVerse bounds verse numbers accepted from input.
	MaxVerse = 999
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrInvalidSlug      = errors.New("invalid identifier")
	ErrInvalidNumber    = errors.New("invalid chapter or verse number")
)

// SanitizePath validates a user-supplied path and ensures it does not
// escape baseDir. It returns the cleaned path relative to baseDir.
func SanitizePath(baseDir, userPath string) (string, error) {
	if err := ValidatePath(userPath); err != nil {
		return "", err
	}

	cleanPath := filepath.Clean(userPath)

	if strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}

	fullPath := filepath.Join(baseDir, cleanPath)
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	relPath, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", ErrPathTraversal
	}

	return cleanPath, nil
}

// IsPathSafe is a convenience wrapper around SanitizePath.
func IsPathSafe(baseDir, userPath string) bool {
	_, err := SanitizePath(baseDir, userPath)
	return err == nil
}

// ValidatePath checks length and character limits without a base directory.
func ValidatePath(p string) error {
	if p == "" {
		return ErrEmptyPath
	}
	if len(p) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(p, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range p {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateResourcePath checks a slash-separated path relative to the data
// root, as used in URLs and cache entries.
func ValidateResourcePath(rel string) error {
	if err := ValidatePath(rel); err != nil {
		return err
	}
	if strings.HasPrefix(rel, "/") || strings.Contains(rel, "\\") {
		return fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return nil
}

// ValidateSlug checks a book or parasha id: lowercase ASCII letters, digits,
// underscores and hyphens, starting with a letter.
func ValidateSlug(id string) error {
	if id == "" || len(id) > MaxSlugLength {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, id)
	}
	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_' || r == '-'):
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSlug, id)
		}
	}
	return nil
}

// ParseChapterVerse parses decimal chapter and verse numbers from route
// segments. An empty verse yields 0.
func ParseChapterVerse(chapter, verse string) (int, int, error) {
	ch, err := strconv.Atoi(chapter)
	if err != nil || ch < 1 || ch > MaxChapter {
		return 0, 0, fmt.Errorf("%w: chapter %q", ErrInvalidNumber, chapter)
	}
	if verse == "" {
		return ch, 0, nil
	}
	v, err := strconv.Atoi(verse)
	if err != nil || v < 1 || v > MaxVerse {
		return 0, 0, fmt.Errorf("%w: verse %q", ErrInvalidNumber, verse)
	}
	return ch, v, nil
}
