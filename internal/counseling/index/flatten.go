// Package index flattens the nested cutoff dataset into queryable entries and
// serves candidate lookups through an optional secondary store.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/models"
)

// Flatten emits one entry per positive leaf rank. Output order is fixed by
// sorting every map level, and Seq records each entry's position.
func Flatten(colleges map[string]models.RawCollege) []models.CutoffIndexEntry {
	var out []models.CutoffIndexEntry

	for _, code := range sortedKeys(colleges) {
		college := colleges[code]
		location := normalize.LocationTag(college.Name)

		for _, branch := range sortedKeys(college.Branches) {
			nb := normalize.ClassifyBranch(branch)
			record := college.Branches[branch]

			for _, year := range sortedKeys(record) {
				for _, round := range sortedKeys(record[year]) {
					categories := record[year][round]
					for _, category := range sortedKeys(categories) {
						rank := categories[category]
						if rank <= 0 {
							continue
						}
						out = append(out, models.CutoffIndexEntry{
							Seq:         len(out),
							CollegeCode: firstNonEmpty(college.Code, code),
							CollegeName: college.Name,
							Branch:      branch,
							BranchCode:  nb.Code,
							Family:      nb.Family,
							IsPure:      nb.IsPure,
							Location:    location,
							Year:        year,
							Round:       round,
							Category:    category,
							Rank:        rank,
							Source:      models.SourceDataset,
						})
					}
				}
			}
		}
	}

	return out
}

// LeafCount counts positive ranks in the raw dataset without flattening it.
func LeafCount(colleges map[string]models.RawCollege) int {
	n := 0
	for _, college := range colleges {
		for _, record := range college.Branches {
			for _, rounds := range record {
				for _, categories := range rounds {
					for _, rank := range categories {
						if rank > 0 {
							n++
						}
					}
				}
			}
		}
	}
	return n
}

// Version fingerprints a flattened index. Equal datasets give equal versions.
func Version(entries []models.CutoffIndexEntry) string {
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d\n", e.CollegeCode, e.Branch, e.Year, e.Round, e.Category, e.Rank)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
