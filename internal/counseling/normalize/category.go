// internal/counseling/normalize/category.go
package normalize

import "strings"

// bareStems are reservation stems published only with a sub-quota suffix.
var bareStems = map[string]bool{
	"1": true, "2A": true, "2B": true, "3A": true, "3B": true, "SC": true, "ST": true,
}

// KnownCategories lists every reservation code found in the published cutoff sheets.
var KnownCategories = []string{
	"1G", "1K", "1R",
	"2AG", "2AK", "2AR", "2BG", "2BK", "2BR",
	"3AG", "3AK", "3AR", "3BG", "3BK", "3BR",
	"GM", "GMK", "GMP", "GMR",
	"NRI", "OPN", "OTH",
	"SCG", "SCK", "SCR",
	"STG", "STK", "STR",
}

var knownCategorySet = func() map[string]bool {
	m := make(map[string]bool, len(KnownCategories))
	for _, c := range KnownCategories {
		m[c] = true
	}
	return m
}()

// ReservationCategory maps user shorthand onto the dataset key ("2a" -> "2AG").
// Unrecognised input passes through upper-cased and never fails.
func ReservationCategory(input string) string {
	c := strings.ToUpper(strings.TrimSpace(input))
	if bareStems[c] {
		return c + "G"
	}
	return c
}

func IsKnownCategory(input string) bool {
	return knownCategorySet[ReservationCategory(input)]
}
