// internal/counseling/normalize/course.go
package normalize

import (
	"strings"

	"seatsathi-workers/internal/models"
)

// CourseRequest is the set of branches a user's course text should match.
type CourseRequest struct {
	Families []models.Family
	// Variant narrows a CS request to one specialisation; VariantPure also
	// requires the entry's pure flag.
	Variant models.Variant
	// Any disables course filtering entirely.
	Any bool
}

var familySynonyms = map[string]models.Family{
	"cs": models.FamilyCS, "cse": models.FamilyCS, "computer": models.FamilyCS, "computerscience": models.FamilyCS,
	"computerscienceengineering": models.FamilyCS,

	"is": models.FamilyIS, "ise": models.FamilyIS, "it": models.FamilyIS, "information": models.FamilyIS,
	"informationscience": models.FamilyIS, "informationtechnology": models.FamilyIS,

	"ec": models.FamilyEC, "ece": models.FamilyEC, "electronics": models.FamilyEC,

	"ee": models.FamilyEE, "eee": models.FamilyEE, "electrical": models.FamilyEE,

	"ei": models.FamilyEI, "eie": models.FamilyEI, "instrumentation": models.FamilyEI,

	"me": models.FamilyME, "mech": models.FamilyME, "mechanical": models.FamilyME,

	"cv": models.FamilyCV, "civil": models.FamilyCV, "ce": models.FamilyCV,

	"robotics": models.FamilyRobotics, "automation": models.FamilyRobotics, "ra": models.FamilyRobotics,
	"robot": models.FamilyRobotics,

	"bt": models.FamilyBT, "biotech": models.FamilyBT, "biotechnology": models.FamilyBT,

	"ch": models.FamilyCH, "chemical": models.FamilyCH,

	"ae": models.FamilyAE, "aerospace": models.FamilyAE, "aeronautical": models.FamilyAE,

	"ar": models.FamilyAR, "architecture": models.FamilyAR,

	"mining": models.FamilyMining,
	"textile": models.FamilyTextile, "textiles": models.FamilyTextile,
}

var variantSynonyms = map[string]models.Variant{
	"purecs": models.VariantPure, "corecs": models.VariantPure, "csepure": models.VariantPure, "cspure": models.VariantPure,

	"aiml": models.VariantAIML, "ai": models.VariantAIML, "ml": models.VariantAIML, "csaiml": models.VariantAIML,
	"artificialintelligence": models.VariantAIML, "machinelearning": models.VariantAIML,

	"ds": models.VariantData, "datascience": models.VariantData, "csds": models.VariantData,

	"cyber": models.VariantCyber, "cybersecurity": models.VariantCyber, "cscyber": models.VariantCyber,

	"csbs": models.VariantBusiness, "businesssystems": models.VariantBusiness,
}

// ResolveCourse maps free-text course input ("cse", "mech", "aiml") onto the
// families it should match. Unknown input resolves to its own sanitised token,
// the same token ClassifyBranch assigns to unmatched branch names.
func ResolveCourse(course string) CourseRequest {
	token := sanitize(course)
	if token == "" {
		return CourseRequest{Any: true}
	}
	if v, ok := variantSynonyms[token]; ok {
		return CourseRequest{Families: []models.Family{models.FamilyCS}, Variant: v}
	}
	if f, ok := familySynonyms[token]; ok {
		return CourseRequest{Families: []models.Family{f}}
	}
	return CourseRequest{Families: []models.Family{fallbackFamily(token)}}
}

// Accepts reports whether an index entry with the given classification
// satisfies the request.
func (c CourseRequest) Accepts(family models.Family, branchCode string, isPure bool) bool {
	if c.Any {
		return true
	}
	if !c.HasFamily(family) {
		return false
	}
	switch c.Variant {
	case models.VariantNone:
		return true
	case models.VariantPure:
		return isPure
	default:
		return branchCode == string(models.FamilyCS)+"-"+string(c.Variant)
	}
}

func (c CourseRequest) HasFamily(family models.Family) bool {
	for _, f := range c.Families {
		if f == family {
			return true
		}
	}
	return false
}

// String renders the request for logs and cache keys.
func (c CourseRequest) String() string {
	if c.Any {
		return "*"
	}
	parts := make([]string, 0, len(c.Families))
	for _, f := range c.Families {
		parts = append(parts, string(f))
	}
	s := strings.Join(parts, "|")
	if c.Variant != models.VariantNone {
		s += "-" + string(c.Variant)
	}
	return s
}
