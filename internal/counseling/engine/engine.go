// Package engine answers counseling queries against the cutoff index.
package engine

import (
	"context"
	"time"

	"seatsathi-workers/internal/common/config"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/counseling/directory"
	"seatsathi-workers/internal/counseling/index"
	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/counseling/supplementary"
	"seatsathi-workers/internal/models"
)

type Config struct {
	// ChanceMargin of zero selects DefaultChanceMargin.
	ChanceMargin       int
	MaxFanOut          int
	SlowQueryThreshold time.Duration
}

func ConfigFrom(c config.CounselingConfig) Config {
	return Config{
		ChanceMargin:       c.ChanceMargin,
		MaxFanOut:          c.MaxFanOut,
		SlowQueryThreshold: c.SlowQueryThreshold(),
	}
}

// Deps are the engine's collaborators. Supplementary and Resolver are optional.
type Deps struct {
	Index         *index.Index
	Supplementary supplementary.Source
	Resolver      directory.Resolver
	Logger        logger.Logger
}

type Engine struct {
	cfg           Config
	index         *index.Index
	supplementary supplementary.Source
	resolver      directory.Resolver
	logger        logger.Logger
}

func New(cfg Config, deps Deps) *Engine {
	if cfg.ChanceMargin == 0 {
		cfg.ChanceMargin = DefaultChanceMargin
	}
	if cfg.MaxFanOut <= 0 {
		cfg.MaxFanOut = 8
	}
	if deps.Resolver == nil {
		deps.Resolver = directory.New()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &Engine{
		cfg:           cfg,
		index:         deps.Index,
		supplementary: deps.Supplementary,
		resolver:      deps.Resolver,
		logger:        deps.Logger.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

// Warm builds the index ahead of the first query.
func (e *Engine) Warm(ctx context.Context) error {
	_, err := e.index.Get(ctx)
	return err
}

func (e *Engine) IsReady() bool {
	return e.index.IsReady()
}

// Stats reports corpus counts, building the index if needed.
func (e *Engine) Stats(ctx context.Context) models.IndexStats {
	if _, err := e.index.Get(ctx); err != nil {
		e.logger.Warn("stats requested but index unavailable", map[string]interface{}{"error": err.Error()})
	}
	return e.index.Stats()
}

// Rebuild discards the current snapshot, reloads the dataset and refreshes any
// external college directory.
func (e *Engine) Rebuild(ctx context.Context) (models.IndexStats, error) {
	e.index.Invalidate()
	snap, err := e.index.Get(ctx)
	if err != nil {
		return e.index.Stats(), err
	}

	if syncer, ok := e.resolver.(directory.Syncer); ok {
		if err := syncer.Sync(ctx, snap.Dataset.Colleges); err != nil {
			e.logger.Warn("college directory sync failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return e.index.Stats(), nil
}

// extraEntries converts supplementary rows into index entries numbered after
// the snapshot's own. A failing source is logged and skipped.
func (e *Engine) extraEntries(ctx context.Context, snap *index.Snapshot) []models.CutoffIndexEntry {
	if e.supplementary == nil {
		return nil
	}
	rows, err := e.supplementary.Entries(ctx)
	if err != nil {
		e.logger.Warn("supplementary source unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}

	base := len(snap.Entries)
	out := make([]models.CutoffIndexEntry, 0, len(rows))
	for i, row := range rows {
		if row.CutoffRank <= 0 {
			continue
		}
		name := row.Name
		if college, ok := snap.Dataset.Colleges[row.Code]; ok && college.Name != "" {
			name = college.Name
		}
		year, round := row.Year, row.Round
		if year == "" {
			year = models.CurrentYear
		}
		if round == "" {
			round = "R1"
		}
		nb := normalize.ClassifyBranch(row.Branch)
		out = append(out, models.CutoffIndexEntry{
			Seq:         base + i,
			CollegeCode: row.Code,
			CollegeName: name,
			Branch:      row.Branch,
			BranchCode:  nb.Code,
			Family:      nb.Family,
			IsPure:      nb.IsPure,
			Location:    normalize.LocationTag(name),
			Year:        year,
			Round:       round,
			Category:    normalize.ReservationCategory(row.Category),
			Rank:        row.CutoffRank,
			Source:      models.SourceSupplementary,
		})
	}
	return out
}
