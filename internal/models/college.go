package models

// Cutoff years reported on every recommendation.
const (
	CurrentYear  = "2025"
	PreviousYear = "2024"
)

// CategoryRanks maps a reservation category code (GM, 2AG, SCR...) to its cutoff rank.
type CategoryRanks map[string]int

// RoundRanks maps a round label (R1, R2, R3) to the category ranks published in that round.
type RoundRanks map[string]CategoryRanks

// BranchRecord maps a year label to the rounds published for one branch.
type BranchRecord map[string]RoundRanks

type RawCollege struct {
	Code     string                  `json:"code"`
	Name     string                  `json:"name"`
	Branches map[string]BranchRecord `json:"branches"`
}

type FileProcessed struct {
	File   string `json:"file"`
	Year   int    `json:"year"`
	Round  int    `json:"round"`
	Count  int    `json:"count"`
	Format string `json:"format"`
}

type Metadata struct {
	ExtractedAt    string          `json:"extracted_at"`
	TotalEntries   int             `json:"total_entries"`
	Years          []int           `json:"years"`
	Rounds         []int           `json:"rounds"`
	Categories     []string        `json:"categories"`
	FilesProcessed []FileProcessed `json:"files_processed"`
}

// Dataset is the full cutoff corpus keyed by college code.
type Dataset struct {
	Metadata Metadata              `json:"metadata"`
	Colleges map[string]RawCollege `json:"colleges"`
}
