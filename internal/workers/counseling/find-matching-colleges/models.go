// internal/workers/counseling/find-matching-colleges/models.go
package findmatchingcolleges

import "seatsathi-workers/internal/models"

type Input struct {
	Rank     int    `json:"rank"`
	Category string `json:"category"`
	Course   string `json:"course"`
	Location string `json:"location"`
}

type Output struct {
	QueryID             string                  `json:"queryId"`
	Recommendations     []models.Recommendation `json:"recommendations"`
	Count               int                     `json:"count"`
	TotalRecordsScanned int                     `json:"totalRecordsScanned"`
	Combinations        int                     `json:"combinations"`
	Strategy            string                  `json:"strategy"`
	QueryTimeMs         int64                   `json:"queryTimeMs"`
	Cached              bool                    `json:"cached"`
}
