// internal/counseling/engine/aggregate.go
package engine

import (
	"strconv"

	"seatsathi-workers/internal/models"
)

// DefaultChanceMargin is the rank distance separating High/Medium/Low.
const DefaultChanceMargin = 1000

// Aggregate collapses one year's ranks across rounds into a range. The sort
// value is the minimum; no ranks yields models.NotAvailable.
func Aggregate(ranks []int) models.CutoffRange {
	if len(ranks) == 0 {
		return models.NotAvailable
	}
	lo, hi := ranks[0], ranks[0]
	for _, r := range ranks[1:] {
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
	}
	if lo == hi {
		return models.CutoffRange{Display: strconv.Itoa(lo), SortRank: lo}
	}
	return models.CutoffRange{Display: strconv.Itoa(lo) + " - " + strconv.Itoa(hi), SortRank: lo}
}

// ReferenceRank picks the current year's sort value, else the previous year's.
func ReferenceRank(current, previous models.CutoffRange) int {
	if current.Available() {
		return current.SortRank
	}
	return previous.SortRank
}

// ClassifyChance compares a college's reference cutoff against the student's
// rank. diff >= margin is High, -margin <= diff < margin is Medium.
func ClassifyChance(reference, rank, margin int) models.Chance {
	diff := reference - rank
	switch {
	case diff >= margin:
		return models.ChanceHigh
	case diff >= -margin:
		return models.ChanceMedium
	default:
		return models.ChanceLow
	}
}
