package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateSHA validates a commit identifier supplied from outside the process.
//
// Identifiers are opaque to the layout stages, so the rules only reject
// values that cannot be a commit id in any history format:
//   - No empty identifiers
//   - No whitespace or control characters
//   - Maximum length of 256 characters
func ValidateSHA(sha string) error {
	if sha == "" {
		return New(ErrCodeInvalidInput, "commit sha cannot be empty")
	}

	if len(sha) > 256 {
		return New(ErrCodeInvalidInput, "commit sha too long (max 256 characters)")
	}

	for _, r := range sha {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "commit sha contains invalid characters: %q", sha)
		}
	}

	return nil
}

// ValidateBranchName validates a branch name used for a tip label.
// It follows the subset of git-check-ref-format rules that matter for display.
func ValidateBranchName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "branch name cannot be empty")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "branch name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..", // Parent directory / revision range
		"//", // Empty path component
		"@{", // Reflog syntax
		"\\", // Backslash
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "branch name contains invalid characters: %q", pattern)
		}
	}

	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".lock") {
		return New(ErrCodeInvalidInput, "invalid branch name: %q", name)
	}

	return nil
}

// ValidatePath validates a file path read by the CLI or server for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}

// hexColorRegex matches #rgb and #rrggbb colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates a CSS hex color such as the trunk color.
func ValidateColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidConfig, "invalid color: %q (want #rgb or #rrggbb)", color)
	}
	return nil
}

// ValidateRedisURL validates a Redis connection URL.
// It ensures the URL has a redis or rediss scheme.
func ValidateRedisURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "redis URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidConfig, "redis URL must use redis or rediss scheme")
	}

	return nil
}
