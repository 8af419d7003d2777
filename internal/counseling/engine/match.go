// internal/counseling/engine/match.go
package engine

import (
	"context"
	"sort"

	"seatsathi-workers/internal/counseling/index"
	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/models"
)

type variant struct {
	branch  string
	isPure  bool
	current []int
	prior   []int
}

// group collects every entry for one (college, normalized branch) pair.
type group struct {
	collegeCode string
	collegeName string
	location    string
	family      models.Family
	branchCode  string

	variants []*variant
	byBranch map[string]*variant
	current  []int
	prior    []int
	sources  map[string]bool
}

func (g *group) add(e models.CutoffIndexEntry) {
	v, ok := g.byBranch[e.Branch]
	if !ok {
		v = &variant{branch: e.Branch, isPure: e.IsPure}
		g.byBranch[e.Branch] = v
		g.variants = append(g.variants, v)
	}
	switch e.Year {
	case models.CurrentYear:
		v.current = append(v.current, e.Rank)
		g.current = append(g.current, e.Rank)
	case models.PreviousYear:
		v.prior = append(v.prior, e.Rank)
		g.prior = append(g.prior, e.Rank)
	}
	g.sources[e.Source] = true
}

// display returns the variant with the lowest reference rank, earliest first
// on ties.
func (g *group) display() *variant {
	var best *variant
	bestRef := 0
	for _, v := range g.variants {
		ref := ReferenceRank(Aggregate(v.current), Aggregate(v.prior))
		if best == nil || ref < bestRef {
			best, bestRef = v, ref
		}
	}
	return best
}

// Match runs a single course/location query. Comma-separated input is not
// split here; see FindMatchingColleges.
func (e *Engine) Match(ctx context.Context, q models.Query) ([]models.Recommendation, error) {
	snap, err := e.index.Get(ctx)
	if err != nil {
		return nil, err
	}
	recs, _, _ := e.match(ctx, snap, e.extraEntries(ctx, snap), q)
	return Rank(recs, q.Rank), nil
}

// match filters, groups and scores one combination. It returns the
// recommendations in group order, the candidate count and the strategy used.
func (e *Engine) match(ctx context.Context, snap *index.Snapshot, extra []models.CutoffIndexEntry, q models.Query) ([]models.Recommendation, int, string) {
	category := normalize.ReservationCategory(q.Category)
	course := normalize.ResolveCourse(q.Course)

	filter := index.Filter{Category: category}
	if !course.Any {
		filter.Families = course.Families
	}

	candidates, strategy := e.index.Candidates(ctx, snap, filter)
	candidates = append(candidates, index.LinearScan(extra, filter)...)

	var order []*group
	groups := make(map[string]*group)
	for _, c := range candidates {
		if !course.Accepts(c.Family, c.BranchCode, c.IsPure) {
			continue
		}
		if !normalize.MatchesLocation(c.Location, q.Location) {
			continue
		}
		key := c.CollegeName + "|" + c.BranchCode
		g, ok := groups[key]
		if !ok {
			g = &group{
				collegeCode: c.CollegeCode,
				collegeName: c.CollegeName,
				location:    c.Location,
				family:      c.Family,
				branchCode:  c.BranchCode,
				byBranch:    make(map[string]*variant),
				sources:     make(map[string]bool),
			}
			groups[key] = g
			order = append(order, g)
		}
		g.add(c)
	}

	recs := make([]models.Recommendation, 0, len(order))
	for _, g := range order {
		current, prior := Aggregate(g.current), Aggregate(g.prior)
		if !current.Available() && !prior.Available() {
			continue
		}
		ref := ReferenceRank(current, prior)
		best := g.display()

		recs = append(recs, models.Recommendation{
			CollegeCode:      g.collegeCode,
			CollegeName:      g.collegeName,
			Branch:           best.branch,
			NormalizedBranch: g.branchCode,
			Family:           g.family,
			Cutoff2025:       current.Display,
			Cutoff2024:       prior.Display,
			Chance:           ClassifyChance(ref, q.Rank, e.cfg.ChanceMargin),
			Location:         normalize.DisplayLocation(g.location),
			IsPure:           best.isPure,
			ReferenceRank:    ref,
			Sources:          sortedSet(g.sources),
		})
	}

	return recs, len(candidates), strategy
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
