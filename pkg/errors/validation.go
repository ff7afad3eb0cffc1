package errors

import (
	"math"
	"slices"
	"strings"
	"unicode"
)

// ValidateBlockSize checks that size is positive and yields at least one
// whole block along both spatial dimensions of a height x width image.
func ValidateBlockSize(size, height, width int) error {
	if size <= 0 {
		return New(ErrCodeInvalidBlockSize, "block size must be positive, got %d", size)
	}
	if size > height || size > width {
		return New(ErrCodeInvalidBlockSize, "block size %d exceeds image dimensions %dx%d", size, width, height)
	}
	return nil
}

// ValidateChannel checks that channel indexes one of n channels.
func ValidateChannel(channel, n int) error {
	if channel < 0 || channel >= n {
		return New(ErrCodeInvalidChannel, "channel %d out of range [0, %d)", channel, n)
	}
	return nil
}

// ValidateAxis checks that axis selects one of the two spatial block axes.
func ValidateAxis(axis int) error {
	if axis != 0 && axis != 1 {
		return New(ErrCodeInvalidAxis, "axis must be 0 or 1, got %d", axis)
	}
	return nil
}

// ValidateUnitInterval checks that v lies in [0, 1].
// NaN is rejected.
func ValidateUnitInterval(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return New(ErrCodeInvalidCorruptionRange, "%s must be in [0, 1], got %v", name, v)
	}
	return nil
}

// ValidateFormat checks that format is one of supported.
func ValidateFormat(format string, supported []string) error {
	if !slices.Contains(supported, format) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(supported, ", "))
	}
	return nil
}

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateRecipeName validates a recipe name as used in TOML files and URLs.
// Names are non-empty, at most 64 characters, and consist of letters,
// digits, '-' and '_'.
func ValidateRecipeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRecipe, "recipe name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidRecipe, "recipe name too long (max 64 characters)")
	}
	if strings.IndexFunc(name, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_')
	}) >= 0 {
		return New(ErrCodeInvalidRecipe, "invalid recipe name: %q", name)
	}
	return nil
}
