package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var ugcPolicy = bluemonday.UGCPolicy()

// Sanitize cleans user supplied HTML to prevent XSS.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeComment sanitizes comment content and trims surrounding space.
func SanitizeComment(input string) string {
	return strings.TrimSpace(Sanitize(input))
}
