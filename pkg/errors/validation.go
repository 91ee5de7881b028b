package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxLabelLength bounds label text; DXF TEXT values are single-line strings.
const maxLabelLength = 255

// ValidateLabelText checks text destined for a TEXT entity.
// Empty text is allowed (a label may consist of the diameter and spacing only),
// but control characters are rejected because they break the DXF group-code
// stream, which is line oriented.
func ValidateLabelText(text string) error {
	if len(text) > maxLabelLength {
		return New(ErrCodeInvalidInput, "label text too long (max %d characters)", maxLabelLength)
	}
	for _, r := range text {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "label text contains control characters")
		}
	}
	return nil
}

// layerNameRegex matches layer names every common DXF reader accepts.
var layerNameRegex = regexp.MustCompile(`^[A-Za-z0-9_$-]{1,31}$`)

// ValidateLayerName validates a drawing layer name.
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layer name cannot be empty")
	}
	if !layerNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid layer name: %q", name)
	}
	return nil
}

// ValidatePath validates an output file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Must not name a directory (trailing separator)
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

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		return New(ErrCodeInvalidPath, "path must name a file, not a directory")
	}

	return nil
}
