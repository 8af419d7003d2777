package models

// SupplementaryEntry is one cutoff row from an uploaded sheet.
type SupplementaryEntry struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Branch     string `json:"branch"`
	Category   string `json:"category"`
	CutoffRank int    `json:"cutoffRank"`
	Year       string `json:"year,omitempty"`
	Round      string `json:"round,omitempty"`
}

type SupplementaryBatch struct {
	ID       string               `json:"id"`
	LoadedAt string               `json:"loadedAt"`
	Entries  []SupplementaryEntry `json:"entries"`
}
