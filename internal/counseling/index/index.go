// internal/counseling/index/index.go
package index

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"seatsathi-workers/internal/common/config"
	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/common/metrics"
	"seatsathi-workers/internal/counseling/dataset"
	"seatsathi-workers/internal/models"

	"golang.org/x/sync/singleflight"
)

// Snapshot is one immutable build of the index.
type Snapshot struct {
	Dataset *models.Dataset
	Entries []models.CutoffIndexEntry
	Version string
	BuiltAt time.Time

	branches  int
	secondary bool
}

// Index builds the flattened entries once per process and answers candidate
// queries from the configured store, falling back to a linear scan.
type Index struct {
	loader dataset.Loader
	store  Store
	logger logger.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	snap   *Snapshot
	builds atomic.Int64
}

// New returns an unbuilt index. A nil store means every query is a linear scan.
func New(loader dataset.Loader, store Store, log logger.Logger) *Index {
	return &Index{
		loader: loader,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "index"}),
	}
}

// Strategy names the configured lookup strategy.
func (ix *Index) Strategy() string {
	if ix.store == nil {
		return config.IndexStrategyLinear
	}
	return ix.store.Name()
}

// Get returns the current snapshot, building it on first use. Concurrent
// callers during a build wait for the same build.
func (ix *Index) Get(ctx context.Context) (*Snapshot, error) {
	if snap := ix.current(); snap != nil {
		return snap, nil
	}

	v, err, _ := ix.group.Do("build", func() (interface{}, error) {
		if snap := ix.current(); snap != nil {
			return snap, nil
		}
		return ix.build(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (ix *Index) current() *Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snap
}

func (ix *Index) build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	ix.builds.Add(1)

	ds, err := ix.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	entries := Flatten(ds.Colleges)
	snap := &Snapshot{
		Dataset: ds,
		Entries: entries,
		Version: Version(entries),
		BuiltAt: time.Now(),
	}
	for _, c := range ds.Colleges {
		snap.branches += len(c.Branches)
	}

	if ix.store != nil {
		if err := ix.store.Populate(ctx, entries, snap.Version); err != nil {
			ix.logger.Warn("secondary index unavailable, using linear scan", map[string]interface{}{
				"strategy": ix.store.Name(),
				"error":    err.Error(),
				"details":  errorDetails(err),
			})
		} else {
			snap.secondary = true
		}
	}

	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()

	metrics.IndexEntries.Set(float64(len(entries)))
	ix.logger.Info("index built", map[string]interface{}{
		"entries":    len(entries),
		"colleges":   len(ds.Colleges),
		"version":    snap.Version,
		"strategy":   ix.Strategy(),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return snap, nil
}

// IsReady reports whether a snapshot has been built.
func (ix *Index) IsReady() bool {
	return ix.current() != nil
}

// Invalidate drops the snapshot and any cached dataset so the next Get
// rebuilds from source.
func (ix *Index) Invalidate() {
	if inv, ok := ix.loader.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
	ix.mu.Lock()
	ix.snap = nil
	ix.mu.Unlock()
}

// Builds counts completed and attempted builds since start.
func (ix *Index) Builds() int64 {
	return ix.builds.Load()
}

// Candidates returns the entries matching f in Seq order, along with the
// strategy that produced them.
func (ix *Index) Candidates(ctx context.Context, snap *Snapshot, f Filter) ([]models.CutoffIndexEntry, string) {
	if ix.store != nil && snap.secondary {
		entries, err := ix.store.Candidates(ctx, f)
		if err == nil {
			sortBySeq(entries)
			return entries, ix.store.Name()
		}
		stdErr := apperrors.NewIndexUnavailableError(ix.store.Name(), err)
		ix.logger.Warn("index query failed, falling back to linear scan", map[string]interface{}{
			"strategy":  ix.store.Name(),
			"errorCode": stdErr.Code,
			"error":     err.Error(),
			"details":   errorDetails(err),
		})
		metrics.IndexFallbacks.WithLabelValues(ix.store.Name()).Inc()
	}
	return LinearScan(snap.Entries, f), config.IndexStrategyLinear
}

// errorDetails digs the driver cause out of a StandardError, whose Error()
// only carries the generic message.
func errorDetails(err error) string {
	if stdErr, ok := apperrors.As(err); ok && stdErr.Details != "" {
		return stdErr.Details
	}
	return err.Error()
}

// Stats describes the current snapshot without forcing a build.
func (ix *Index) Stats() models.IndexStats {
	stats := models.IndexStats{Strategy: ix.Strategy()}
	snap := ix.current()
	if snap == nil {
		return stats
	}
	stats.Ready = true
	stats.Colleges = len(snap.Dataset.Colleges)
	stats.Branches = snap.branches
	stats.Cutoffs = len(snap.Entries)
	return stats
}
