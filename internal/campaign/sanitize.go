package campaign

import "strings"

// CleanPlaceholder collapses newlines, tabs and runs of whitespace to single
// spaces and trims the ends. The provider's template engine rejects values
// with raw control characters.
func CleanPlaceholder(v string) string {
	return strings.Join(strings.Fields(v), " ")
}
