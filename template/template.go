// Package template extracts field references from display template strings.
package template

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`{{.*?}}`)

// ExtractPlaceholders returns every {{...}} span in the template, in order.
// Matching is non-greedy and does not support nesting; malformed or unclosed
// spans simply fail to match and are ignored.
func ExtractPlaceholders(tmpl string) []string {
	return placeholderRe.FindAllString(tmpl, -1)
}

// FieldIsReferenced reports whether the field name occurs inside at least one
// placeholder of the template.
//
// This is a substring test, not a token-boundary test: a field named "name"
// is considered referenced by a template containing {{username}}. Downstream
// consumers rely on this behavior, so it is preserved as-is.
func FieldIsReferenced(tmpl, field string) bool {
	if field == "" {
		return false
	}
	for _, ph := range ExtractPlaceholders(tmpl) {
		if strings.Contains(ph, field) {
			return true
		}
	}
	return false
}
