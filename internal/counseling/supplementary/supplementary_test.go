// internal/counseling/supplementary/supplementary_test.go
package supplementary

import (
	"context"
	"testing"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(code string, rank int) models.SupplementaryEntry {
	return models.SupplementaryEntry{
		Code: code, Name: "Test College Bangalore", Branch: "Computer Science and Engineering",
		Category: "2a", CutoffRank: rank,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.SupplementaryEntry
		wantErr bool
	}{
		{name: "valid", entries: []models.SupplementaryEntry{entry("E900", 1200)}},
		{name: "empty upload", entries: nil, wantErr: true},
		{name: "zero rank", entries: []models.SupplementaryEntry{entry("E900", 0)}, wantErr: true},
		{name: "missing code", entries: []models.SupplementaryEntry{entry("", 10)}, wantErr: true},
		{
			name: "bad year",
			entries: []models.SupplementaryEntry{{
				Code: "E900", Name: "X", Branch: "Civil", Category: "GM", CutoffRank: 10, Year: "25",
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			stdErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeSupplementaryValidationFailed, stdErr.Code)
		})
	}
}

func TestNewBatch_FillsDefaults(t *testing.T) {
	b := NewBatch([]models.SupplementaryEntry{entry("E900", 1200)})

	assert.NotEmpty(t, b.ID)
	assert.NotEmpty(t, b.LoadedAt)
	require.Len(t, b.Entries, 1)
	assert.Equal(t, models.CurrentYear, b.Entries[0].Year)
	assert.Equal(t, "R1", b.Entries[0].Round)
	assert.Equal(t, "2AG", b.Entries[0].Category)
}

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySource(entry("E900", 100))

	require.NoError(t, s.Append(ctx, NewBatch([]models.SupplementaryEntry{entry("E901", 200)}), false))
	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, s.Append(ctx, NewBatch([]models.SupplementaryEntry{entry("E902", 300)}), true))
	entries, err = s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "E902", entries[0].Code)
}

func TestRedisSource(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	s := NewRedisSource(client, "counseling:supplementary")

	first := NewBatch([]models.SupplementaryEntry{entry("E900", 100), entry("E901", 200)})
	second := NewBatch([]models.SupplementaryEntry{entry("E902", 300)})

	require.NoError(t, s.Append(ctx, first, false))
	require.NoError(t, s.Append(ctx, second, false))

	batches, err := s.Batches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, first.ID, batches[0].ID)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	replacement := NewBatch([]models.SupplementaryEntry{entry("E903", 400)})
	require.NoError(t, s.Append(ctx, replacement, true))

	entries, err = s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "E903", entries[0].Code)
}

func TestRedisSource_CorruptBatch(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	_, err := mr.RPush("counseling:supplementary", "not-json")
	require.NoError(t, err)

	_, err = NewRedisSource(client, "counseling:supplementary").Entries(context.Background())
	require.Error(t, err)
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeSupplementaryStoreFailed, stdErr.Code)
}
