// Package directory resolves free-text college names to dataset codes.
package directory

import (
	"context"
	"sort"
	"strings"

	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/models"
)

// Resolver maps a user's college search onto a code present in colleges.
type Resolver interface {
	Resolve(ctx context.Context, colleges map[string]models.RawCollege, search string) (string, bool)
}

// Syncer is implemented by resolvers that keep an external copy of the
// college list.
type Syncer interface {
	Sync(ctx context.Context, colleges map[string]models.RawCollege) error
}

// aliases maps well-known abbreviations, in ForSearch form, to college codes.
var aliases = map[string]string{
	"rvu":            "E285",
	"rvuniversity":   "E285",
	"rvce":           "E005",
	"rvcollege":      "E005",
	"rvitm":          "E295",
	"uvce":           "E001",
	"bms":            "E003",
	"bmsce":          "E003",
	"msrit":          "E006",
	"ramaiah":        "E006",
	"msramaiah":      "E006",
	"pes":            "E009",
	"pesu":           "E009",
	"sit":            "E016",
	"siddaganga":     "E016",
	"sjce":           "E021",
	"nie":            "E022",
	"mce":            "E024",
	"malnad":         "E024",
	"sdm":            "E034",
	"kle":            "E036",
	"kletech":        "E036",
	"gogte":          "E037",
	"dsce":           "E007",
	"dayanandasagar": "E007",
	"cmrit":          "E050",
	"nhce":           "E052",
	"newhorizon":     "E052",
	"rnsit":          "E053",
	"acharya":        "E057",
	"christ":         "E065",
	"jain":           "E068",
	"reva":           "E070",
}

// AliasesFor lists the abbreviations that resolve to code, sorted.
func AliasesFor(code string) []string {
	var out []string
	for alias, c := range aliases {
		if c == code {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// Directory resolves by exact alias first, then by the first college, in code
// order, whose punctuation-free name contains the search.
type Directory struct{}

func New() *Directory {
	return &Directory{}
}

func (d *Directory) Resolve(_ context.Context, colleges map[string]models.RawCollege, search string) (string, bool) {
	key := normalize.ForSearch(search)
	if key == "" {
		return "", false
	}

	if code, ok := aliases[key]; ok {
		if _, present := colleges[code]; present {
			return code, true
		}
	}

	codes := make([]string, 0, len(colleges))
	for code := range colleges {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if strings.Contains(normalize.ForSearch(colleges[code].Name), key) {
			return code, true
		}
	}
	return "", false
}
