// internal/counseling/index/store.go
package index

import (
	"context"
	"sort"
	"sync"

	"seatsathi-workers/internal/models"
)

// Filter selects candidate entries. A nil Families slice matches every family.
type Filter struct {
	Families []models.Family
	Category string
}

func (f Filter) matches(e models.CutoffIndexEntry) bool {
	if e.Category != f.Category {
		return false
	}
	if f.Families == nil {
		return true
	}
	for _, fam := range f.Families {
		if e.Family == fam {
			return true
		}
	}
	return false
}

// Store is a secondary structure answering candidate lookups faster than a
// linear scan. Every Store must return exactly the entries LinearScan returns.
type Store interface {
	Name() string
	Populate(ctx context.Context, entries []models.CutoffIndexEntry, version string) error
	Candidates(ctx context.Context, f Filter) ([]models.CutoffIndexEntry, error)
}

// LinearScan filters the entry slice directly. It is always available.
func LinearScan(entries []models.CutoffIndexEntry, f Filter) []models.CutoffIndexEntry {
	var out []models.CutoffIndexEntry
	for _, e := range entries {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// FamilyStore keeps entries bucketed by family+category, and by category alone
// for unconstrained course requests.
type FamilyStore struct {
	mu         sync.RWMutex
	byFamily   map[string][]models.CutoffIndexEntry
	byCategory map[string][]models.CutoffIndexEntry
	populated  bool
}

func NewFamilyStore() *FamilyStore {
	return &FamilyStore{}
}

func (s *FamilyStore) Name() string { return "memory" }

func (s *FamilyStore) Populate(_ context.Context, entries []models.CutoffIndexEntry, _ string) error {
	byFamily := make(map[string][]models.CutoffIndexEntry)
	byCategory := make(map[string][]models.CutoffIndexEntry)
	for _, e := range entries {
		key := familyKey(e.Family, e.Category)
		byFamily[key] = append(byFamily[key], e)
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}

	s.mu.Lock()
	s.byFamily = byFamily
	s.byCategory = byCategory
	s.populated = true
	s.mu.Unlock()
	return nil
}

func (s *FamilyStore) Candidates(_ context.Context, f Filter) ([]models.CutoffIndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.populated {
		return nil, ErrStoreNotPopulated
	}

	if f.Families == nil {
		return append([]models.CutoffIndexEntry(nil), s.byCategory[f.Category]...), nil
	}

	var out []models.CutoffIndexEntry
	seen := make(map[models.Family]bool, len(f.Families))
	for _, fam := range f.Families {
		if seen[fam] {
			continue
		}
		seen[fam] = true
		out = append(out, s.byFamily[familyKey(fam, f.Category)]...)
	}
	sortBySeq(out)
	return out, nil
}

func familyKey(family models.Family, category string) string {
	return string(family) + "|" + category
}

func sortBySeq(entries []models.CutoffIndexEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
}
