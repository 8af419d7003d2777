package models

import "math"

type Family string

const (
	FamilyCS       Family = "CS"
	FamilyIS       Family = "IS"
	FamilyEC       Family = "EC"
	FamilyEE       Family = "EE"
	FamilyEI       Family = "EI"
	FamilyME       Family = "ME"
	FamilyCV       Family = "CV"
	FamilyRobotics Family = "ROBOTICS"
	FamilyCH       Family = "CH"
	FamilyBT       Family = "BT"
	FamilyAE       Family = "AE"
	FamilyAR       Family = "AR"
	FamilyMining   Family = "MINING"
	FamilyTextile  Family = "TEXTILE"
	FamilyOther    Family = "OTHER"
)

type Variant string

const (
	VariantNone     Variant = ""
	VariantPure     Variant = "PURE"
	VariantAIML     Variant = "AIML"
	VariantData     Variant = "DATA"
	VariantCyber    Variant = "CYBER"
	VariantBusiness Variant = "BS"
)

// NormalizedBranch is the classification of a free-text branch name.
// Code is the grouping key: "CS-AIML" for CS sub-variants, the family itself otherwise.
type NormalizedBranch struct {
	Code    string  `json:"code"`
	Family  Family  `json:"family"`
	Variant Variant `json:"variant,omitempty"`
	IsPure  bool    `json:"isPure"`
}

// Entry origins.
const (
	SourceDataset       = "dataset"
	SourceSupplementary = "supplementary"
)

// CutoffIndexEntry is one (college, branch, year, round, category) leaf of the dataset.
// Seq is the entry's position in the flattened index and orders candidates deterministically.
type CutoffIndexEntry struct {
	Seq         int    `json:"seq"`
	CollegeCode string `json:"collegeCode"`
	CollegeName string `json:"collegeName"`
	Branch      string `json:"branch"`
	BranchCode  string `json:"branchCode"`
	Family      Family `json:"family"`
	IsPure      bool   `json:"isPure"`
	Location    string `json:"location"`
	Year        string `json:"year"`
	Round       string `json:"round"`
	Category    string `json:"category"`
	Rank        int    `json:"rank"`
	Source      string `json:"source"`
}

// CutoffRange is the min-max of one year's ranks across rounds.
type CutoffRange struct {
	Display  string `json:"display"`
	SortRank int    `json:"sortRank"`
}

// NotAvailable marks a year with no published rank for the requested category.
var NotAvailable = CutoffRange{Display: "N/A", SortRank: math.MaxInt}

func (r CutoffRange) Available() bool {
	return r.SortRank != math.MaxInt
}
