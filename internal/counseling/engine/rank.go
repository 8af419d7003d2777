// internal/counseling/engine/rank.go
package engine

import (
	"sort"

	"seatsathi-workers/internal/models"
)

// DedupKey identifies one course at one college. The branch part is the
// normalized code, so CS variants (CS-PURE, CS-AIML, ...) stay distinct.
func DedupKey(r models.Recommendation) string {
	return r.CollegeName + "|" + r.NormalizedBranch
}

// Dedup keeps the first recommendation seen for each DedupKey.
func Dedup(recs []models.Recommendation) []models.Recommendation {
	seen := make(map[string]bool, len(recs))
	out := make([]models.Recommendation, 0, len(recs))
	for _, r := range recs {
		key := DedupKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// Rank returns a sorted copy: pure branches first, then safer chances, then
// closer cutoffs, then college name and branch code.
func Rank(recs []models.Recommendation, rank int) []models.Recommendation {
	out := make([]models.Recommendation, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPure != b.IsPure {
			return a.IsPure
		}
		if a.Chance.Order() != b.Chance.Order() {
			return a.Chance.Order() < b.Chance.Order()
		}
		da, db := distance(a.ReferenceRank, rank), distance(b.ReferenceRank, rank)
		if da != db {
			return da < db
		}
		if a.CollegeName != b.CollegeName {
			return a.CollegeName < b.CollegeName
		}
		return a.NormalizedBranch < b.NormalizedBranch
	})
	return out
}

func distance(reference, rank int) int {
	d := reference - rank
	if d < 0 {
		return -d
	}
	return d
}
