// internal/workers/counseling/rebuild-cutoff-index/models.go
package rebuildcutoffindex

type Input struct {
	Reason string `json:"reason"`
}

type Output struct {
	Colleges    int    `json:"colleges"`
	Branches    int    `json:"branches"`
	Cutoffs     int    `json:"cutoffs"`
	Strategy    string `json:"strategy"`
	CachePurged int    `json:"cachePurged"`
	DurationMs  int64  `json:"durationMs"`
}
