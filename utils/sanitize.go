package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// CleanText sanitizes and trims submitted text; an empty result means the input was blank.
func CleanText(input string) string {
	return strings.TrimSpace(Sanitize(input))
}
