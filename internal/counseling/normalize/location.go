// internal/counseling/normalize/location.go
package normalize

import "strings"

// Statewide is the tag for colleges whose name carries no region keyword.
const Statewide = "karnataka"

type region struct {
	tag      string
	keywords []string
}

// regions is checked in order; the first region whose keyword occurs in the
// college name supplies its tag.
var regions = []region{
	{"bangalore", []string{"bangalore", "bengaluru"}},
	{"mysore", []string{"mysore", "mysuru"}},
	{"mangalore", []string{"mangalore", "mangaluru"}},
	{"hubli", []string{"hubli", "dharwad"}},
	{"belgaum", []string{"belgaum", "belagavi"}},
	{"gulbarga", []string{"gulbarga", "kalaburagi"}},
	{"davangere", []string{"davangere", "davanagere"}},
	{"shimoga", []string{"shimoga", "shivamogga"}},
	{"tumkur", []string{"tumkur", "tumakuru"}},
	{"hassan", []string{"hassan"}},
	{"mandya", []string{"mandya"}},
	{"raichur", []string{"raichur"}},
	{"bellary", []string{"bellary", "ballari"}},
	{"chitradurga", []string{"chitradurga"}},
	{"bidar", []string{"bidar"}},
	{"kolar", []string{"kolar"}},
	{"chikmagalur", []string{"chikmagalur", "chikkamagaluru"}},
	{"udupi", []string{"udupi"}},
}

// tagAliases are extra spellings users type for a region.
var tagAliases = map[string][]string{
	"bangalore": {"bangalore", "bengaluru", "blr"},
	"mysore":    {"mysore", "mysuru"},
}

var unconstrained = map[string]bool{
	"":          true,
	Statewide:   true,
	"anywhere":  true,
	"any":       true,
	"statewide": true,
	"all":       true,
}

// LocationTag derives a region tag from a college name, or Statewide.
func LocationTag(collegeName string) string {
	name := strings.ToLower(collegeName)
	for _, r := range regions {
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r.tag
			}
		}
	}
	return Statewide
}

// TagKeywords lists the tag itself followed by its aliases, without duplicates.
func TagKeywords(tag string) []string {
	keywords := []string{tag}
	for _, a := range tagAliases[tag] {
		if a != tag {
			keywords = append(keywords, a)
		}
	}
	return keywords
}

func LocationKeywords(collegeName string) []string {
	return TagKeywords(LocationTag(collegeName))
}

// IsUnconstrainedLocation reports whether a requested location means "no preference".
func IsUnconstrainedLocation(location string) bool {
	return unconstrained[strings.ToLower(strings.TrimSpace(location))]
}

// MatchesLocation compares a request against a college's location tag. Either
// side may contain the other so that "Bangalore Urban" and "blr" both match.
func MatchesLocation(tag, requested string) bool {
	if IsUnconstrainedLocation(requested) {
		return true
	}
	req := strings.ToLower(strings.TrimSpace(requested))
	for _, kw := range TagKeywords(tag) {
		if strings.Contains(kw, req) || strings.Contains(req, kw) {
			return true
		}
	}
	return false
}

// DisplayLocation capitalises a tag for presentation.
func DisplayLocation(tag string) string {
	if tag == "" {
		return tag
	}
	return strings.ToUpper(tag[:1]) + tag[1:]
}
