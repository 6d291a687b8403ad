// internal/app/system/sanitize/sanitize.go

// Package sanitize cleans free-text user input before it is stored or
// echoed back. Session names and locations are plain text in this system,
// so everything that looks like markup is stripped, not escaped.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips all HTML from s and trims surrounding whitespace. The result
// is safe to store and to render into any context.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
