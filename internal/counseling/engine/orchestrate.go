// internal/counseling/engine/orchestrate.go
package engine

import (
	"context"
	"strings"
	"time"

	"seatsathi-workers/internal/common/config"
	"seatsathi-workers/internal/common/metrics"
	"seatsathi-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// SplitList splits comma-separated input, trimming and dropping empties. An
// input with no values yields one empty value meaning "no constraint".
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

type combination struct {
	course   string
	location string
}

func combinations(course, location string) []combination {
	courses, locations := SplitList(course), SplitList(location)
	out := make([]combination, 0, len(courses)*len(locations))
	for _, c := range courses {
		for _, l := range locations {
			out = append(out, combination{course: c, location: l})
		}
	}
	return out
}

// FindMatchingColleges is Find without the diagnostics.
func (e *Engine) FindMatchingColleges(ctx context.Context, rank int, category, course, location string) []models.Recommendation {
	return e.Find(ctx, models.Query{Rank: rank, Category: category, Course: course, Location: location}).Recommendations
}

// Find runs one Match per course×location combination, tags each result with
// its combination, then dedups and ranks the merged set. It never fails; an
// unavailable index yields an empty result.
func (e *Engine) Find(ctx context.Context, q models.Query) models.SearchResult {
	start := time.Now()
	combos := combinations(q.Course, q.Location)
	result := models.SearchResult{
		Recommendations: []models.Recommendation{},
		Combinations:    len(combos),
		Strategy:        e.index.Strategy(),
	}

	snap, err := e.index.Get(ctx)
	if err != nil {
		e.logger.Error("index unavailable, returning no matches", map[string]interface{}{
			"error": err.Error(),
		})
		return result
	}
	extra := e.extraEntries(ctx, snap)

	perCombo := make([][]models.Recommendation, len(combos))
	scanned := make([]int, len(combos))
	strategies := make([]string, len(combos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxFanOut)
	for i, combo := range combos {
		i, combo := i, combo
		g.Go(func() error {
			sub := models.Query{Rank: q.Rank, Category: q.Category, Course: combo.course, Location: combo.location}
			recs, n, strategy := e.match(gctx, snap, extra, sub)
			for j := range recs {
				recs[j].SearchCourse = combo.course
				recs[j].SearchLocation = combo.location
			}
			perCombo[i], scanned[i], strategies[i] = recs, n, strategy
			return nil
		})
	}
	_ = g.Wait()

	var merged []models.Recommendation
	for i := range combos {
		merged = append(merged, perCombo[i]...)
		result.RecordsScanned += scanned[i]
		if strategies[i] == config.IndexStrategyLinear {
			result.Strategy = config.IndexStrategyLinear
		}
	}
	result.Recommendations = Rank(Dedup(merged), q.Rank)

	elapsed := time.Since(start)
	metrics.ObserveQuery("find", result.Strategy, elapsed)

	fields := map[string]interface{}{
		"rank":         q.Rank,
		"category":     q.Category,
		"course":       q.Course,
		"location":     q.Location,
		"combinations": len(combos),
		"scanned":      result.RecordsScanned,
		"results":      len(result.Recommendations),
		"strategy":     result.Strategy,
		"durationMs":   elapsed.Milliseconds(),
	}
	if e.cfg.SlowQueryThreshold > 0 && elapsed > e.cfg.SlowQueryThreshold {
		e.logger.Warn("slow counseling query", fields)
	} else {
		e.logger.Debug("counseling query", fields)
	}

	return result
}
