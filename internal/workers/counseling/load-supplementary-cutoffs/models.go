// internal/workers/counseling/load-supplementary-cutoffs/models.go
package loadsupplementarycutoffs

import "seatsathi-workers/internal/models"

type Input struct {
	Entries []models.SupplementaryEntry `json:"entries"`
	// Replace discards every earlier batch before storing this one.
	Replace bool `json:"replace"`
}

type Output struct {
	BatchID     string `json:"batchId"`
	Accepted    int    `json:"accepted"`
	Total       int    `json:"total"`
	Replaced    bool   `json:"replaced"`
	CachePurged int    `json:"cachePurged"`
}
