// internal/counseling/engine/lookup.go
package engine

import (
	"context"
	"sort"
	"time"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/metrics"
	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/models"
)

type branchRanks struct {
	current []int
	prior   []int
}

// GetSpecificCollegeCutoff reports every matching branch at one college.
// NotFound and NoData are returned as statuses, never as errors.
func (e *Engine) GetSpecificCollegeCutoff(ctx context.Context, collegeName, category, course string) models.CollegeCutoffResult {
	start := time.Now()
	defer func() {
		metrics.ObserveQuery("lookup", e.index.Strategy(), time.Since(start))
	}()

	cat := normalize.ReservationCategory(category)
	result := models.CollegeCutoffResult{Category: cat, Data: []models.BranchCutoff{}}

	snap, err := e.index.Get(ctx)
	if err != nil {
		stdErr := apperrors.NewIndexUnavailableError(e.index.Strategy(), err)
		e.logger.Error("college lookup without index", map[string]interface{}{"error": err.Error()})
		result.Status = models.LookupUnavailable
		result.Message = stdErr.Message
		return result
	}

	code, ok := e.resolver.Resolve(ctx, snap.Dataset.Colleges, collegeName)
	if !ok {
		result.Status = models.LookupNotFound
		result.Message = apperrors.NewCollegeNotFoundError(collegeName).Message
		return result
	}

	college := snap.Dataset.Colleges[code]
	result.CollegeCode = code
	result.CollegeName = college.Name

	req := normalize.ResolveCourse(course)
	ranks := make(map[string]*branchRanks)
	collect := func(branch, year string, rank int) {
		nb := normalize.ClassifyBranch(branch)
		if !req.Accepts(nb.Family, nb.Code, nb.IsPure) {
			return
		}
		br, ok := ranks[branch]
		if !ok {
			br = &branchRanks{}
			ranks[branch] = br
		}
		switch year {
		case models.CurrentYear:
			br.current = append(br.current, rank)
		case models.PreviousYear:
			br.prior = append(br.prior, rank)
		}
	}

	for branch, record := range college.Branches {
		for year, rounds := range record {
			for _, categories := range rounds {
				if rank := categories[cat]; rank > 0 {
					collect(branch, year, rank)
				}
			}
		}
	}
	for _, extra := range e.extraEntries(ctx, snap) {
		if extra.CollegeCode == code && extra.Category == cat {
			collect(extra.Branch, extra.Year, extra.Rank)
		}
	}

	branches := make([]string, 0, len(ranks))
	for branch := range ranks {
		branches = append(branches, branch)
	}
	sort.Strings(branches)

	for _, branch := range branches {
		current, prior := Aggregate(ranks[branch].current), Aggregate(ranks[branch].prior)
		if !current.Available() && !prior.Available() {
			continue
		}
		result.Data = append(result.Data, models.BranchCutoff{
			Branch:     branch,
			Cutoff2025: current.Display,
			Cutoff2024: prior.Display,
		})
	}

	if len(result.Data) == 0 {
		result.Status = models.LookupNoData
		result.Message = apperrors.NewNoCutoffDataError(course, college.Name).Message
		return result
	}

	result.Status = models.LookupFound
	return result
}
