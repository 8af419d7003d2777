// internal/counseling/normalize/branch.go
package normalize

import (
	"strings"

	"seatsathi-workers/internal/models"
)

const fallbackTokenLen = 20

// branchName is a lower-cased branch name with its alphanumeric words.
type branchName struct {
	lower string
	words map[string]bool
}

func newBranchName(raw string) branchName {
	lower := strings.ToLower(strings.TrimSpace(raw))
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !isAlnum(r)
	}) {
		words[w] = true
	}
	return branchName{lower: lower, words: words}
}

func (b branchName) has(subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(b.lower, s) {
			return true
		}
	}
	return false
}

func (b branchName) word(ws ...string) bool {
	for _, w := range ws {
		if b.words[w] {
			return true
		}
	}
	return false
}

func (b branchName) prefix(ps ...string) bool {
	for _, p := range ps {
		if strings.HasPrefix(b.lower, p) {
			return true
		}
	}
	return false
}

type branchRule struct {
	name    string
	match   func(b branchName) bool
	family  models.Family
	variant models.Variant
}

// branchRules is evaluated top to bottom and the first match wins. CS
// specialisations sit above the generic "computer" rule so that names carrying
// both keywords resolve to the specialisation.
var branchRules = []branchRule{
	{
		name: "cs-aiml",
		match: func(b branchName) bool {
			return b.has("artificial", "aiml", "ai ml", "ai&ml", "machine learning") ||
				(b.word("ai") && b.word("ml")) ||
				(b.word("ai") && (b.has("computer") || b.word("cs", "cse")))
		},
		family: models.FamilyCS, variant: models.VariantAIML,
	},
	{
		name: "cs-data",
		match: func(b branchName) bool {
			return b.has("data science", "data engineering", "data analytics") ||
				(b.word("data") && (b.has("computer") || b.word("cs", "cse")))
		},
		family: models.FamilyCS, variant: models.VariantData,
	},
	{
		name:   "cs-cyber",
		match:  func(b branchName) bool { return b.has("cyber", "security") },
		family: models.FamilyCS, variant: models.VariantCyber,
	},
	{
		name: "cs-business",
		match: func(b branchName) bool {
			return b.has("business") || b.word("csbs") ||
				(b.word("bs") && (b.has("computer") || b.word("cs")))
		},
		family: models.FamilyCS, variant: models.VariantBusiness,
	},
	{
		name: "cs-pure",
		match: func(b branchName) bool {
			return b.has("computer") || b.prefix("cs ") || b.word("cse") || b.lower == "cs" ||
				(b.has("tech") && (strings.HasSuffix(b.lower, " cs") || b.has(" in cs")))
		},
		family: models.FamilyCS, variant: models.VariantPure,
	},
	{
		name: "is",
		match: func(b branchName) bool {
			return b.has("information science", "information tech") || b.prefix("is ") || b.lower == "is" || b.word("ise")
		},
		family: models.FamilyIS,
	},
	{
		name: "ec",
		match: func(b branchName) bool {
			return (b.has("electronics") && b.has("communication")) || b.has("telecommunic") ||
				b.prefix("ec ") || b.lower == "ec" || b.word("ece")
		},
		family: models.FamilyEC,
	},
	{
		name: "ee",
		match: func(b branchName) bool {
			return b.has("electrical") || b.prefix("ee ") || b.lower == "ee" || b.word("eee")
		},
		family: models.FamilyEE,
	},
	{
		name:   "ei",
		match:  func(b branchName) bool { return b.has("instrumentation") || b.prefix("ei ") },
		family: models.FamilyEI,
	},
	{
		name:   "me",
		match:  func(b branchName) bool { return b.has("mechanical") || b.prefix("me ") || b.lower == "me" },
		family: models.FamilyME,
	},
	{
		name:   "cv",
		match:  func(b branchName) bool { return b.has("civil") || b.prefix("cv ", "ce ") },
		family: models.FamilyCV,
	},
	{
		name:   "robotics",
		match:  func(b branchName) bool { return b.has("robotics", "automation") },
		family: models.FamilyRobotics,
	},
	{
		name:   "ch",
		match:  func(b branchName) bool { return b.has("chemical") || b.prefix("ch ") },
		family: models.FamilyCH,
	},
	{
		name:   "bt",
		match:  func(b branchName) bool { return b.has("biotech", "bio technology", "bio-technology") || b.prefix("bt ") },
		family: models.FamilyBT,
	},
	{
		name:   "ae",
		match:  func(b branchName) bool { return b.has("aerospace", "aeronautical") },
		family: models.FamilyAE,
	},
	{
		name:   "ar",
		match:  func(b branchName) bool { return b.has("architecture") || b.prefix("ar ") },
		family: models.FamilyAR,
	},
	{
		name:   "mining",
		match:  func(b branchName) bool { return b.has("mining") },
		family: models.FamilyMining,
	},
	{
		name:   "textile",
		match:  func(b branchName) bool { return b.has("textile") },
		family: models.FamilyTextile,
	},
}

// ClassifyBranch maps a free-text branch name onto its family and CS variant.
// The result depends only on the input string.
func ClassifyBranch(name string) models.NormalizedBranch {
	b := newBranchName(name)
	for _, rule := range branchRules {
		if !rule.match(b) {
			continue
		}
		return newNormalizedBranch(rule.family, rule.variant)
	}
	return newNormalizedBranch(fallbackFamily(b.lower), models.VariantNone)
}

// BranchRuleNames returns the rule table order, first to last.
func BranchRuleNames() []string {
	names := make([]string, len(branchRules))
	for i, r := range branchRules {
		names[i] = r.name
	}
	return names
}

func newNormalizedBranch(family models.Family, variant models.Variant) models.NormalizedBranch {
	nb := models.NormalizedBranch{
		Code:    string(family),
		Family:  family,
		Variant: variant,
		IsPure:  true,
	}
	if family == models.FamilyCS {
		nb.Code = string(family) + "-" + string(variant)
		nb.IsPure = variant == models.VariantPure
	}
	return nb
}

// fallbackFamily turns an unmatched name into a stable family token.
func fallbackFamily(lower string) models.Family {
	token := sanitize(lower)
	if len(token) > fallbackTokenLen {
		token = token[:fallbackTokenLen]
	}
	if token == "" {
		return models.FamilyOther
	}
	return models.Family(strings.ToUpper(token))
}

func sanitize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if isAlnum(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
