package advisory

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName turns a normalized dataset key back into a human-readable
// label ("bangalore rural" -> "Bangalore Rural").
func DisplayName(key string) string {
	return titleCaser.String(key)
}
