// internal/workers/counseling/load-supplementary-cutoffs/handler_test.go
package loadsupplementarycutoffs

import (
	"context"
	"testing"
	"time"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/counseling/dataset"
	"seatsathi-workers/internal/counseling/engine"
	"seatsathi-workers/internal/counseling/fixtures"
	"seatsathi-workers/internal/counseling/index"
	"seatsathi-workers/internal/counseling/resultcache"
	"seatsathi-workers/internal/counseling/supplementary"
	"seatsathi-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(code, branch, category string, rank int) models.SupplementaryEntry {
	return models.SupplementaryEntry{
		Code:       code,
		Name:       "Uploaded College Bengaluru",
		Branch:     branch,
		Category:   category,
		CutoffRank: rank,
	}
}

func TestHandler_Execute_AppendsBatches(t *testing.T) {
	store := supplementary.NewMemorySource()
	h := NewHandler(LoadConfig(), store, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := h.Execute(ctx, &Input{Entries: []models.SupplementaryEntry{
		row("E900", "Computer Science and Engineering", "GM", 4200),
		row("E900", "Mechanical Engineering", "2a", 21000),
	}})
	require.NoError(t, err)
	assert.NotEmpty(t, first.BatchID)
	assert.Equal(t, 2, first.Accepted)
	assert.Equal(t, 2, first.Total)
	assert.False(t, first.Replaced)

	second, err := h.Execute(ctx, &Input{Entries: []models.SupplementaryEntry{
		row("E901", "Civil Engineering", "SC", 61000),
	}})
	require.NoError(t, err)
	assert.NotEqual(t, first.BatchID, second.BatchID)
	assert.Equal(t, 1, second.Accepted)
	assert.Equal(t, 3, second.Total)

	batches, err := store.Batches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "2AG", batches[0].Entries[1].Category)
}

func TestHandler_Execute_Replace(t *testing.T) {
	store := supplementary.NewMemorySource(row("E900", "Civil Engineering", "GM", 50000))
	h := NewHandler(LoadConfig(), store, nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Entries: []models.SupplementaryEntry{row("E902", "Computer Science and Engineering", "GM", 3000)},
		Replace: true,
	})
	require.NoError(t, err)
	assert.True(t, out.Replaced)
	assert.Equal(t, 1, out.Total)

	entries, err := store.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "E902", entries[0].Code)
}

func TestHandler_Execute_RejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.SupplementaryEntry
	}{
		{name: "empty upload", entries: nil},
		{name: "zero rank", entries: []models.SupplementaryEntry{row("E900", "Civil Engineering", "GM", 0)}},
		{
			name: "one bad row among good ones",
			entries: []models.SupplementaryEntry{
				row("E900", "Civil Engineering", "GM", 100),
				row("", "Civil Engineering", "GM", 200),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := supplementary.NewMemorySource()
			h := NewHandler(LoadConfig(), store, nil, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), &Input{Entries: tt.entries})
			assert.Nil(t, out)

			stdErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeSupplementaryValidationFailed, stdErr.Code)
			assert.False(t, stdErr.Retryable)

			entries, err := store.Entries(context.Background())
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestHandler_Execute_PurgesCachesAndFeedsEngine(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewTestLogger(t)
	store := supplementary.NewRedisSource(client, "counseling:supplementary")
	match := resultcache.New(client, "match", time.Minute, log)
	lookup := resultcache.New(client, "lookup", time.Minute, log)

	ctx := context.Background()
	match.Set(ctx, match.Key("4500", "GM", "cs", ""), map[string]int{"count": 6})
	lookup.Set(ctx, lookup.Key("rvce", "GM", "cs"), map[string]string{"status": "found"})

	h := NewHandler(LoadConfig(), store, nil, log, match, lookup)
	out, err := h.Execute(ctx, &Input{Entries: []models.SupplementaryEntry{
		row("E900", "Mechanical Engineering", "GM", 4400),
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.CachePurged)
	assert.Equal(t, []string{"counseling:supplementary"}, mr.Keys())

	ix := index.New(dataset.NewStaticLoader(fixtures.Colleges()), index.NewFamilyStore(), log)
	eng := engine.New(engine.Config{}, engine.Deps{Index: ix, Supplementary: store, Logger: log})

	result := eng.Find(ctx, models.Query{Rank: 4300, Category: "GM", Course: "mech"})
	var codes []string
	for _, r := range result.Recommendations {
		codes = append(codes, r.CollegeCode)
	}
	assert.Contains(t, codes, "E900")
}

func TestHandler_Execute_StoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	h := NewHandler(LoadConfig(), supplementary.NewRedisSource(client, "counseling:supplementary"), nil, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{Entries: []models.SupplementaryEntry{
		row("E900", "Civil Engineering", "GM", 100),
	}})

	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeSupplementaryStoreFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
