// Package dataset loads the raw KCET cutoff corpus.
package dataset

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"seatsathi-workers/internal/models"

	"golang.org/x/sync/singleflight"
)

// Loader returns the full nested cutoff dataset.
type Loader interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

// StaticLoader serves a dataset that is already in memory.
type StaticLoader struct {
	Dataset *models.Dataset
}

func NewStaticLoader(colleges map[string]models.RawCollege) *StaticLoader {
	ds := &models.Dataset{Colleges: colleges}
	ds.Metadata = Describe(colleges)
	return &StaticLoader{Dataset: ds}
}

func (l *StaticLoader) Load(_ context.Context) (*models.Dataset, error) {
	return l.Dataset, nil
}

// CachedLoader memoises another loader for the process lifetime. Concurrent
// first calls share one underlying load.
type CachedLoader struct {
	next  Loader
	group singleflight.Group

	mu      sync.RWMutex
	dataset *models.Dataset
	loads   atomic.Int64
}

func NewCachedLoader(next Loader) *CachedLoader {
	return &CachedLoader{next: next}
}

func (c *CachedLoader) Load(ctx context.Context) (*models.Dataset, error) {
	c.mu.RLock()
	ds := c.dataset
	c.mu.RUnlock()
	if ds != nil {
		return ds, nil
	}

	v, err, _ := c.group.Do("dataset", func() (interface{}, error) {
		c.mu.RLock()
		cached := c.dataset
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		c.loads.Add(1)
		loaded, err := c.next.Load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.dataset = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Dataset), nil
}

// Invalidate drops the cached dataset; the next Load reads from the source again.
func (c *CachedLoader) Invalidate() {
	c.mu.Lock()
	c.dataset = nil
	c.mu.Unlock()
}

// Loads reports how many times the underlying loader has been called.
func (c *CachedLoader) Loads() int64 {
	return c.loads.Load()
}

// Describe computes metadata for a corpus that arrived without any.
func Describe(colleges map[string]models.RawCollege) models.Metadata {
	years := map[int]bool{}
	rounds := map[int]bool{}
	categories := map[string]bool{}
	total := 0

	for _, college := range colleges {
		for _, record := range college.Branches {
			for year, byRound := range record {
				if y, err := strconv.Atoi(year); err == nil {
					years[y] = true
				}
				for round, byCategory := range byRound {
					if r, err := strconv.Atoi(trimRoundPrefix(round)); err == nil {
						rounds[r] = true
					}
					for category, rank := range byCategory {
						if rank <= 0 {
							continue
						}
						categories[category] = true
						total++
					}
				}
			}
		}
	}

	return models.Metadata{
		TotalEntries: total,
		Years:        sortedInts(years),
		Rounds:       sortedInts(rounds),
		Categories:   sortedStrings(categories),
	}
}

func trimRoundPrefix(round string) string {
	if len(round) > 1 && (round[0] == 'R' || round[0] == 'r') {
		return round[1:]
	}
	return round
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
