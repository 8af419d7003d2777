package models

type Chance string

const (
	ChanceHigh   Chance = "High"
	ChanceMedium Chance = "Medium"
	ChanceLow    Chance = "Low"
)

// Order ranks chances for sorting, safest first.
func (c Chance) Order() int {
	switch c {
	case ChanceHigh:
		return 0
	case ChanceMedium:
		return 1
	default:
		return 2
	}
}

// Query is a single (rank, category, course, location) request. Course and
// Location may hold comma-separated lists when passed to the orchestrator.
type Query struct {
	Rank     int    `json:"rank"`
	Category string `json:"category"`
	Course   string `json:"course"`
	Location string `json:"location"`
}

type Recommendation struct {
	CollegeCode      string   `json:"collegeCode,omitempty"`
	CollegeName      string   `json:"collegeName"`
	Branch           string   `json:"branch"`
	NormalizedBranch string   `json:"normalizedBranch"`
	Family           Family   `json:"family"`
	Cutoff2025       string   `json:"cutoff2025"`
	Cutoff2024       string   `json:"cutoff2024"`
	Chance           Chance   `json:"chance"`
	Location         string   `json:"location"`
	IsPure           bool     `json:"isPure"`
	ReferenceRank    int      `json:"referenceRank"`
	SearchCourse     string   `json:"searchCourse,omitempty"`
	SearchLocation   string   `json:"searchLocation,omitempty"`
	Sources          []string `json:"sources,omitempty"`
}

// SearchResult wraps an orchestrated query with its diagnostics.
type SearchResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	RecordsScanned  int              `json:"totalRecordsScanned"`
	Combinations    int              `json:"combinations"`
	Strategy        string           `json:"strategy"`
}

type LookupStatus string

const (
	LookupFound       LookupStatus = "found"
	LookupNotFound    LookupStatus = "not_found"
	LookupNoData      LookupStatus = "no_data"
	LookupUnavailable LookupStatus = "unavailable"
)

type BranchCutoff struct {
	Branch     string `json:"branch"`
	Cutoff2025 string `json:"cutoff2025"`
	Cutoff2024 string `json:"cutoff2024"`
}

// CollegeCutoffResult is the outcome of a specific-college lookup. Failures are
// reported through Status and Message rather than as errors.
type CollegeCutoffResult struct {
	Status      LookupStatus   `json:"status"`
	CollegeCode string         `json:"collegeCode,omitempty"`
	CollegeName string         `json:"collegeName,omitempty"`
	Category    string         `json:"category"`
	Data        []BranchCutoff `json:"data"`
	Message     string         `json:"message,omitempty"`
}

func (r CollegeCutoffResult) Found() bool {
	return r.Status == LookupFound
}

// IndexStats summarises the loaded corpus.
type IndexStats struct {
	Colleges int    `json:"colleges"`
	Branches int    `json:"branches"`
	Cutoffs  int    `json:"cutoffs"`
	Ready    bool   `json:"ready"`
	Strategy string `json:"strategy"`
}
