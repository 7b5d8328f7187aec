// Package docpath holds path-safety and naming rules for documents in the
// Git-backed tree.
package docpath

import (
	"regexp"
	"strings"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
)

// Extension all published documents must carry.
const Extension = ".md"

var invalidPathChars = []string{"<", ">", ":", "\"", "|", "?", "*"}

// Validate checks a target path for traversal and format problems. Paths are
// always repository-relative.
func Validate(path string) error {
	if path == "" {
		return apperrors.Validation("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return apperrors.Validation("path cannot contain null bytes")
	}
	if strings.HasPrefix(path, "/") {
		return apperrors.Validation("path should not start with /")
	}
	if strings.Contains(path, "..") {
		return apperrors.Validation("path cannot contain parent directory references (..)")
	}
	for _, ch := range invalidPathChars {
		if strings.Contains(path, ch) {
			return apperrors.Validation("path cannot contain character: %s", ch)
		}
	}
	if strings.Contains(path, "//") {
		return apperrors.Validation("path cannot contain consecutive slashes")
	}
	if !strings.HasSuffix(path, Extension) {
		return apperrors.Validation("file must have %s extension", Extension)
	}
	return nil
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugHyphens  = regexp.MustCompile(`-+`)
	unsafeFSChar = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// Slug generates a URL-friendly slug from a title: lowercased, stripped of
// non-alphanumerics, whitespace and hyphen runs collapsed to single hyphens.
func Slug(text string) string {
	s := strings.ToLower(text)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizeFilename makes a filename safe for the filesystem and Git.
func SanitizeFilename(name string) string {
	s := unsafeFSChar.ReplaceAllString(name, "-")
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ToLower(s)
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidateSlug checks an externally supplied slug.
func ValidateSlug(slug string) error {
	if slug == "" {
		return apperrors.Validation("slug cannot be empty")
	}
	if matched, _ := regexp.MatchString(`^[a-z0-9-]+$`, slug); !matched {
		return apperrors.Validation("slug must contain only lowercase letters, numbers, and hyphens")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return apperrors.Validation("slug cannot start or end with hyphen")
	}
	if strings.Contains(slug, "--") {
		return apperrors.Validation("slug cannot contain consecutive hyphens")
	}
	if len(slug) > 200 {
		return apperrors.Validation("slug cannot exceed 200 characters")
	}
	return nil
}
