// internal/counseling/engine/engine_test.go
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"seatsathi-workers/internal/common/config"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/counseling/dataset"
	"seatsathi-workers/internal/counseling/fixtures"
	"seatsathi-workers/internal/counseling/index"
	"seatsathi-workers/internal/counseling/supplementary"
	"seatsathi-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, store index.Store, supp supplementary.Source) *Engine {
	t.Helper()
	log := logger.NewTestLogger(t)
	ix := index.New(dataset.NewStaticLoader(fixtures.Colleges()), store, log)
	return New(Config{}, Deps{Index: ix, Supplementary: supp, Logger: log})
}

type brokenStore struct{}

func (brokenStore) Name() string { return config.IndexStrategyPostgres }

func (brokenStore) Populate(context.Context, []models.CutoffIndexEntry, string) error { return nil }

func (brokenStore) Candidates(context.Context, index.Filter) ([]models.CutoffIndexEntry, error) {
	return nil, errors.New("connection refused")
}

type failingLoader struct{}

func (failingLoader) Load(context.Context) (*models.Dataset, error) {
	return nil, errors.New("data directory missing")
}

func keys(recs []models.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.CollegeCode + "/" + r.NormalizedBranch
	}
	return out
}

func assertSorted(t *testing.T, recs []models.Recommendation, rank int) {
	t.Helper()
	for i := 1; i < len(recs); i++ {
		a, b := recs[i-1], recs[i]
		if a.IsPure != b.IsPure {
			assert.True(t, a.IsPure, "pure before specialised at %d", i)
			continue
		}
		if a.Chance != b.Chance {
			assert.Less(t, a.Chance.Order(), b.Chance.Order(), "chance order at %d", i)
			continue
		}
		assert.LessOrEqual(t, distance(a.ReferenceRank, rank), distance(b.ReferenceRank, rank), "distance order at %d", i)
	}
}

func assertUnique(t *testing.T, recs []models.Recommendation) {
	t.Helper()
	seen := map[string]bool{}
	for _, r := range recs {
		key := DedupKey(r)
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		ranks []int
		want  models.CutoffRange
	}{
		{name: "two rounds", ranks: []int{12000, 15400}, want: models.CutoffRange{Display: "12000 - 15400", SortRank: 12000}},
		{name: "reversed rounds", ranks: []int{15400, 12000}, want: models.CutoffRange{Display: "12000 - 15400", SortRank: 12000}},
		{name: "single round", ranks: []int{9000}, want: models.CutoffRange{Display: "9000", SortRank: 9000}},
		{name: "equal rounds", ranks: []int{9000, 9000}, want: models.CutoffRange{Display: "9000", SortRank: 9000}},
		{name: "no rounds", ranks: nil, want: models.NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.ranks))
		})
	}
	assert.False(t, Aggregate(nil).Available())
	assert.Equal(t, "N/A", Aggregate(nil).Display)
}

func TestClassifyChance_Boundaries(t *testing.T) {
	const rank = 20000
	tests := []struct {
		reference int
		want      models.Chance
	}{
		{rank + 5000, models.ChanceHigh},
		{rank + 1000, models.ChanceHigh},
		{rank + 999, models.ChanceMedium},
		{rank, models.ChanceMedium},
		{rank - 1, models.ChanceMedium},
		{rank - 1000, models.ChanceMedium},
		{rank - 1001, models.ChanceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyChance(tt.reference, rank, DefaultChanceMargin), "reference %d", tt.reference)
	}
	assert.Equal(t, models.ChanceHigh, ClassifyChance(rank+10, rank, 10), "margin is configurable")
}

func TestReferenceRank(t *testing.T) {
	assert.Equal(t, 10, ReferenceRank(Aggregate([]int{10}), Aggregate([]int{5})))
	assert.Equal(t, 5, ReferenceRank(models.NotAvailable, Aggregate([]int{5})))
}

func TestDedup_KeepsCSVariantsApart(t *testing.T) {
	recs := []models.Recommendation{
		{CollegeName: "A", NormalizedBranch: "CS-PURE", Family: models.FamilyCS},
		{CollegeName: "A", NormalizedBranch: "CS-AIML", Family: models.FamilyCS},
		{CollegeName: "A", NormalizedBranch: "CS-DATA", Family: models.FamilyCS},
		{CollegeName: "A", NormalizedBranch: "CS-AIML", Family: models.FamilyCS, SearchCourse: "dup"},
	}

	deduped := Dedup(recs)
	require.Len(t, deduped, 3)
	assert.NotEqual(t, DedupKey(recs[0]), DedupKey(recs[1]))
	assert.Equal(t, DedupKey(recs[1]), DedupKey(recs[3]))
}

func TestRankAndDedup(t *testing.T) {
	recs := []models.Recommendation{
		{CollegeName: "B", NormalizedBranch: "CS-AIML", Chance: models.ChanceHigh, ReferenceRank: 9000},
		{CollegeName: "A", NormalizedBranch: "CS-PURE", IsPure: true, Chance: models.ChanceLow, ReferenceRank: 100},
		{CollegeName: "C", NormalizedBranch: "CS-PURE", IsPure: true, Chance: models.ChanceHigh, ReferenceRank: 7000},
		{CollegeName: "D", NormalizedBranch: "CS-PURE", IsPure: true, Chance: models.ChanceHigh, ReferenceRank: 6000},
		{CollegeName: "C", NormalizedBranch: "CS-PURE", IsPure: true, Chance: models.ChanceLow, ReferenceRank: 1, SearchCourse: "dup"},
		{CollegeName: "E", NormalizedBranch: "CS-PURE", IsPure: true, Chance: models.ChanceHigh, ReferenceRank: 6000},
	}

	deduped := Dedup(recs)
	require.Len(t, deduped, 5)
	for _, r := range deduped {
		assert.NotEqual(t, "dup", r.SearchCourse, "first-seen wins")
	}

	ranked := Rank(deduped, 5000)
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.CollegeName
	}
	assert.Equal(t, []string{"D", "E", "C", "A", "B"}, names)
	assert.Equal(t, "B", deduped[0].CollegeName, "Rank does not reorder its input")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"CS", "ME"}, SplitList(" CS, ,ME ,"))
	assert.Equal(t, []string{""}, SplitList(""))
	assert.Equal(t, []string{""}, SplitList(" , "))
}

func TestFind_Ordering(t *testing.T) {
	e := newEngine(t, index.NewFamilyStore(), nil)

	recs := e.FindMatchingColleges(context.Background(), 4500, "GM", "CS", "")
	assert.Equal(t, []string{
		"E016/CS-PURE",
		"E022/CS-PURE",
		"E009/CS-PURE",
		"E005/CS-PURE",
		"E285/CS-DATA",
		"E005/CS-AIML",
	}, keys(recs))
	assertSorted(t, recs, 4500)
	assertUnique(t, recs)

	byKey := map[string]models.Recommendation{}
	for _, r := range recs {
		byKey[r.CollegeCode+"/"+r.NormalizedBranch] = r
	}

	rvce := byKey["E005/CS-PURE"]
	assert.Equal(t, "300 - 350", rvce.Cutoff2025)
	assert.Equal(t, "280", rvce.Cutoff2024)
	assert.Equal(t, models.ChanceLow, rvce.Chance)
	assert.Equal(t, "Bangalore", rvce.Location)
	assert.Equal(t, []string{models.SourceDataset}, rvce.Sources)

	nie := byKey["E022/CS-PURE"]
	assert.Equal(t, "Computer Science and Engineering", nie.Branch, "display branch has the lowest reference rank")
	assert.Equal(t, "5000 - 6000", nie.Cutoff2025)
	assert.Equal(t, "5200 - 5800", nie.Cutoff2024)
	assert.Equal(t, models.ChanceMedium, nie.Chance)

	rvu := byKey["E285/CS-DATA"]
	assert.Equal(t, "N/A", rvu.Cutoff2024)
	assert.False(t, rvu.IsPure)
}

func TestFind_Filters(t *testing.T) {
	e := newEngine(t, index.NewFamilyStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		category string
		course   string
		location string
		want     []string
	}{
		{name: "location", category: "GM", course: "CS", location: "Bangalore",
			want: []string{"E009/CS-PURE", "E005/CS-PURE", "E285/CS-DATA", "E005/CS-AIML"}},
		{name: "location alias", category: "gm", course: "cse", location: "blr",
			want: []string{"E009/CS-PURE", "E005/CS-PURE", "E285/CS-DATA", "E005/CS-AIML"}},
		{name: "other region", category: "GM", course: "CS", location: "Mysuru", want: []string{"E022/CS-PURE"}},
		{name: "variant", category: "GM", course: "aiml", location: "", want: []string{"E005/CS-AIML"}},
		{name: "pure only", category: "GM", course: "pure cs", location: "Bangalore",
			want: []string{"E009/CS-PURE", "E005/CS-PURE"}},
		{name: "bare category stem", category: "2A", course: "CS", location: "", want: []string{"E005/CS-PURE"}},
		{name: "unknown category", category: "XYZ", course: "CS", location: "", want: []string{}},
		{name: "unknown course", category: "GM", course: "underwater basket weaving", location: "", want: []string{}},
		{name: "no match in location", category: "GM", course: "ME", location: "Udupi", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := e.FindMatchingColleges(ctx, 4500, tt.category, tt.course, tt.location)
			require.NotNil(t, recs)
			assert.Equal(t, tt.want, keys(recs))
		})
	}
}

func TestFind_UnconstrainedLocation(t *testing.T) {
	e := newEngine(t, nil, nil)
	ctx := context.Background()

	base := e.FindMatchingColleges(ctx, 4500, "GM", "CS", "")
	for _, loc := range []string{"anywhere", "Karnataka", "  ", "any"} {
		got := e.FindMatchingColleges(ctx, 4500, "GM", "CS", loc)
		assert.Equal(t, keys(base), keys(got), "location %q", loc)
	}
}

func TestFind_FanOutCompleteness(t *testing.T) {
	e := newEngine(t, index.NewFamilyStore(), nil)
	ctx := context.Background()

	result := e.Find(ctx, models.Query{Rank: 4500, Category: "GM", Course: "CS,ME", Location: "Bangalore,Mysore"})
	assert.Equal(t, 4, result.Combinations)
	assertUnique(t, result.Recommendations)
	assertSorted(t, result.Recommendations, 4500)

	union := map[string]bool{}
	for _, course := range []string{"CS", "ME"} {
		for _, loc := range []string{"Bangalore", "Mysore"} {
			recs, err := e.Match(ctx, models.Query{Rank: 4500, Category: "GM", Course: course, Location: loc})
			require.NoError(t, err)
			for _, r := range recs {
				union[DedupKey(r)] = true
			}
		}
	}
	require.Len(t, result.Recommendations, len(union))

	for _, r := range result.Recommendations {
		assert.True(t, union[DedupKey(r)])
		recs, err := e.Match(ctx, models.Query{Rank: 4500, Category: "GM", Course: r.SearchCourse, Location: r.SearchLocation})
		require.NoError(t, err)
		found := false
		for _, m := range recs {
			found = found || DedupKey(m) == DedupKey(r)
		}
		assert.True(t, found, "%s tagged with a combination that did not produce it", DedupKey(r))
	}
}

func TestFind_CrossCombinationDedupKeepsFirst(t *testing.T) {
	e := newEngine(t, nil, nil)

	recs := e.FindMatchingColleges(context.Background(), 4500, "GM", "CS,cse", "")
	single := e.FindMatchingColleges(context.Background(), 4500, "GM", "CS", "")

	assert.Equal(t, keys(single), keys(recs))
	for _, r := range recs {
		assert.Equal(t, "CS", r.SearchCourse)
	}
}

func TestFind_DeterministicAcrossStrategies(t *testing.T) {
	queries := []models.Query{
		{Rank: 4500, Category: "GM", Course: "CS", Location: ""},
		{Rank: 100, Category: "GM", Course: "CS,ME,civil", Location: "Bangalore,Tumkur"},
		{Rank: 25000, Category: "SC", Course: "", Location: ""},
		{Rank: 5000, Category: "GM", Course: "is,ec", Location: "anywhere"},
	}
	stores := map[string]func() index.Store{
		"linear": func() index.Store { return nil },
		"memory": func() index.Store { return index.NewFamilyStore() },
		"broken": func() index.Store { return brokenStore{} },
	}

	for _, q := range queries {
		var reference []byte
		for name, mk := range stores {
			e := newEngine(t, mk(), nil)
			first, err := json.Marshal(e.Find(context.Background(), q).Recommendations)
			require.NoError(t, err)
			second, err := json.Marshal(e.Find(context.Background(), q).Recommendations)
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second), "repeat query on %s", name)

			if reference == nil {
				reference = first
				continue
			}
			assert.JSONEq(t, string(reference), string(first), "strategy %s for %+v", name, q)
		}
	}
}

func TestFind_StrategyReported(t *testing.T) {
	q := models.Query{Rank: 4500, Category: "GM", Course: "CS"}

	assert.Equal(t, config.IndexStrategyMemory, newEngine(t, index.NewFamilyStore(), nil).Find(context.Background(), q).Strategy)
	assert.Equal(t, config.IndexStrategyLinear, newEngine(t, brokenStore{}, nil).Find(context.Background(), q).Strategy)

	result := newEngine(t, nil, nil).Find(context.Background(), q)
	assert.Equal(t, config.IndexStrategyLinear, result.Strategy)
	assert.Positive(t, result.RecordsScanned)
}

func TestEndToEndScenario(t *testing.T) {
	colleges := map[string]models.RawCollege{
		"E900": {Code: "E900", Name: "Example Institute of Technology, Bangalore", Branches: map[string]models.BranchRecord{
			"Computer Science and Engineering": {"2025": {"R1": {"GM": 50000}, "R2": {"GM": 55000}}},
		}},
	}
	log := logger.NewTestLogger(t)
	e := New(Config{}, Deps{Index: index.New(dataset.NewStaticLoader(colleges), nil, log), Logger: log})
	ctx := context.Background()

	recs := e.FindMatchingColleges(ctx, 48000, "GM", "CS", "Bangalore")
	require.Len(t, recs, 1)
	assert.Equal(t, "Example Institute of Technology, Bangalore", recs[0].CollegeName)
	assert.Equal(t, "50000 - 55000", recs[0].Cutoff2025)
	assert.Equal(t, "N/A", recs[0].Cutoff2024)
	assert.Equal(t, models.ChanceHigh, recs[0].Chance)
	assert.Equal(t, "Bangalore", recs[0].SearchLocation)

	for _, loc := range []string{"", "anywhere"} {
		unconstrained := e.FindMatchingColleges(ctx, 48000, "GM", "CS", loc)
		require.Len(t, unconstrained, 1)
		assert.Equal(t, recs[0].Cutoff2025, unconstrained[0].Cutoff2025)
		assert.Equal(t, recs[0].Chance, unconstrained[0].Chance)
	}
}

func TestGetSpecificCollegeCutoff(t *testing.T) {
	e := newEngine(t, index.NewFamilyStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		college     string
		category    string
		course      string
		wantStatus  models.LookupStatus
		wantData    []models.BranchCutoff
		wantMessage string
	}{
		{
			name: "alias and family", college: "rvce", category: "GM", course: "cs",
			wantStatus: models.LookupFound,
			wantData: []models.BranchCutoff{
				{Branch: "Artificial Intelligence and Machine Learning", Cutoff2025: "500", Cutoff2024: "450"},
				{Branch: "Computer Science and Engineering", Cutoff2025: "300 - 350", Cutoff2024: "280"},
			},
		},
		{
			name: "category stem", college: "R.V. College", category: "2a", course: "cse",
			wantStatus: models.LookupFound,
			wantData: []models.BranchCutoff{
				{Branch: "Computer Science and Engineering", Cutoff2025: "450", Cutoff2024: "N/A"},
			},
		},
		{
			name: "every branch", college: "national institute", category: "GM", course: "",
			wantStatus: models.LookupFound,
			wantData: []models.BranchCutoff{
				{Branch: "CS Computer Science", Cutoff2025: "6000", Cutoff2024: "5800"},
				{Branch: "Computer Science and Engineering", Cutoff2025: "5000", Cutoff2024: "5200"},
				{Branch: "Information Science and Engineering", Cutoff2025: "9000", Cutoff2024: "N/A"},
			},
		},
		{
			name: "not found", college: "NonexistentCollegeXYZ", category: "GM", course: "CS",
			wantStatus:  models.LookupNotFound,
			wantData:    []models.BranchCutoff{},
			wantMessage: "College 'NonexistentCollegeXYZ' not found.",
		},
		{
			name: "no data", college: "pes", category: "GM", course: "civil",
			wantStatus:  models.LookupNoData,
			wantData:    []models.BranchCutoff{},
			wantMessage: "No data for civil in PES University Bangalore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.GetSpecificCollegeCutoff(ctx, tt.college, tt.category, tt.course)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantData, got.Data)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, got.Message)
			}
			if tt.wantStatus == models.LookupFound {
				assert.True(t, got.Found())
				assert.NotEmpty(t, got.CollegeName)
			}
		})
	}
}

func TestSupplementaryEntriesAreUnioned(t *testing.T) {
	supp := supplementary.NewMemorySource(
		models.SupplementaryEntry{Code: "E009", Name: "PES", Branch: "Computer Science and Engineering",
			Category: "GM", CutoffRank: 1700, Year: "2025", Round: "R2"},
		models.SupplementaryEntry{Code: "E900", Name: "Uploaded College Bengaluru", Branch: "Mechanical Engineering",
			Category: "GM", CutoffRank: 12000},
	)
	e := newEngine(t, index.NewFamilyStore(), supp)
	ctx := context.Background()

	recs := e.FindMatchingColleges(ctx, 4500, "GM", "CS", "Bangalore")
	var pes models.Recommendation
	for _, r := range recs {
		if r.CollegeCode == "E009" {
			pes = r
		}
	}
	assert.Equal(t, "1500 - 1700", pes.Cutoff2025)
	assert.Equal(t, []string{models.SourceDataset, models.SourceSupplementary}, pes.Sources)

	mech := e.FindMatchingColleges(ctx, 4500, "GM", "ME", "Bangalore")
	require.Len(t, mech, 2)
	var uploaded models.Recommendation
	for _, r := range mech {
		if r.CollegeCode == "E900" {
			uploaded = r
		}
	}
	assert.Equal(t, "12000", uploaded.Cutoff2025)
	assert.Equal(t, []string{models.SourceSupplementary}, uploaded.Sources)

	lookup := e.GetSpecificCollegeCutoff(ctx, "pes", "GM", "cs")
	require.True(t, lookup.Found())
	assert.Equal(t, "1500 - 1700", lookup.Data[0].Cutoff2025)
}

type countingSource struct{ calls atomic.Int64 }

func (s *countingSource) Entries(context.Context) ([]models.SupplementaryEntry, error) {
	s.calls.Add(1)
	return nil, errors.New("redis down")
}

func TestSupplementaryFailureIsIgnored(t *testing.T) {
	src := &countingSource{}
	with := newEngine(t, nil, src).FindMatchingColleges(context.Background(), 4500, "GM", "CS", "")
	without := newEngine(t, nil, nil).FindMatchingColleges(context.Background(), 4500, "GM", "CS", "")

	assert.Equal(t, keys(without), keys(with))
	assert.Equal(t, int64(1), src.calls.Load())
}

func TestIndexUnavailable(t *testing.T) {
	log := logger.NewTestLogger(t)
	e := New(Config{}, Deps{Index: index.New(failingLoader{}, nil, log), Logger: log})
	ctx := context.Background()

	result := e.Find(ctx, models.Query{Rank: 100, Category: "GM", Course: "CS"})
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)

	_, err := e.Match(ctx, models.Query{Rank: 100, Category: "GM", Course: "CS"})
	assert.Error(t, err)

	lookup := e.GetSpecificCollegeCutoff(ctx, "rvce", "GM", "CS")
	assert.Equal(t, models.LookupUnavailable, lookup.Status)

	assert.False(t, e.Stats(ctx).Ready)
	assert.Error(t, e.Warm(ctx))
}

type syncingResolver struct {
	synced atomic.Int64
}

func (r *syncingResolver) Resolve(_ context.Context, colleges map[string]models.RawCollege, search string) (string, bool) {
	_, ok := colleges[search]
	return search, ok
}

func (r *syncingResolver) Sync(context.Context, map[string]models.RawCollege) error {
	r.synced.Add(1)
	return nil
}

func TestStatsAndRebuild(t *testing.T) {
	log := logger.NewTestLogger(t)
	resolver := &syncingResolver{}
	ix := index.New(dataset.NewStaticLoader(fixtures.Colleges()), index.NewFamilyStore(), log)
	e := New(Config{}, Deps{Index: ix, Resolver: resolver, Logger: log})
	ctx := context.Background()

	assert.False(t, e.IsReady())
	stats := e.Stats(ctx)
	assert.True(t, stats.Ready)
	assert.Equal(t, fixtures.Entries, stats.Cutoffs)
	assert.Equal(t, config.IndexStrategyMemory, stats.Strategy)

	stats, err := e.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Colleges)
	assert.Equal(t, int64(2), ix.Builds())
	assert.Equal(t, int64(1), resolver.synced.Load())

	assert.Equal(t, models.LookupFound, e.GetSpecificCollegeCutoff(ctx, "E016", "GM", "").Status)
}
