// internal/workers/counseling/get-college-cutoff/models.go
package getcollegecutoff

import "seatsathi-workers/internal/models"

type Input struct {
	CollegeName string `json:"collegeName"`
	Category    string `json:"category"`
	Course      string `json:"course"`
}

// Output flattens the lookup result into the job variables.
type Output struct {
	models.CollegeCutoffResult
	QueryTimeMs int64 `json:"queryTimeMs"`
	Cached      bool  `json:"cached"`
}
