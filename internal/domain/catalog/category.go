package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeCategory collapses whitespace and title-cases a category label,
// so "  fresh   fruits" and "Fresh Fruits" land in the same bucket.
func NormalizeCategory(category string) string {
	fields := strings.Fields(category)
	if len(fields) == 0 {
		return ""
	}
	// a Caser keeps state between calls, so each call gets its own
	return cases.Title(language.English).String(strings.Join(fields, " "))
}
