// Package supplementary holds cutoff rows uploaded outside the main dataset.
package supplementary

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/validation"
	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/models"

	"github.com/google/uuid"
)

// Source supplies extra entries that are unioned into every query.
type Source interface {
	Entries(ctx context.Context) ([]models.SupplementaryEntry, error)
}

// Store is a Source that accepts uploads.
type Store interface {
	Source
	Append(ctx context.Context, batch models.SupplementaryBatch, replace bool) error
	Batches(ctx context.Context) ([]models.SupplementaryBatch, error)
}

// EntrySchema validates one uploaded row.
const EntrySchema = `{
  "type": "object",
  "required": ["code", "name", "branch", "category", "cutoffRank"],
  "properties": {
    "code":       {"type": "string", "minLength": 1},
    "name":       {"type": "string", "minLength": 1},
    "branch":     {"type": "string", "minLength": 1},
    "category":   {"type": "string", "minLength": 1},
    "cutoffRank": {"type": "integer", "minimum": 1},
    "year":       {"type": "string", "pattern": "^[0-9]{4}$"},
    "round":      {"type": "string", "pattern": "^[Rr][0-9]+$"}
  }
}`

// Validate checks every entry against EntrySchema and reports all failures
// with their row index.
func Validate(entries []models.SupplementaryEntry) error {
	if len(entries) == 0 {
		return apperrors.NewSupplementaryValidationFailedError("no entries supplied")
	}

	var problems []string
	for i, e := range entries {
		result, err := validation.ValidateJSON(EntrySchema, e)
		if err != nil {
			return apperrors.NewSupplementaryValidationFailedError(err.Error())
		}
		for _, msg := range result.GetErrorMessages() {
			problems = append(problems, fmt.Sprintf("entries[%d].%s", i, msg))
		}
	}
	if len(problems) > 0 {
		return apperrors.NewSupplementaryValidationFailedError(fmt.Sprintf("%v", problems))
	}
	return nil
}

// NewBatch stamps entries with an ID and fills defaults for year and round.
func NewBatch(entries []models.SupplementaryEntry) models.SupplementaryBatch {
	normalized := make([]models.SupplementaryEntry, len(entries))
	for i, e := range entries {
		if e.Year == "" {
			e.Year = models.CurrentYear
		}
		if e.Round == "" {
			e.Round = "R1"
		}
		e.Category = normalize.ReservationCategory(e.Category)
		normalized[i] = e
	}
	return models.SupplementaryBatch{
		ID:       uuid.NewString(),
		LoadedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:  normalized,
	}
}

// MemorySource keeps batches in process.
type MemorySource struct {
	mu      sync.RWMutex
	batches []models.SupplementaryBatch
}

func NewMemorySource(entries ...models.SupplementaryEntry) *MemorySource {
	s := &MemorySource{}
	if len(entries) > 0 {
		s.batches = append(s.batches, NewBatch(entries))
	}
	return s
}

func (s *MemorySource) Append(_ context.Context, batch models.SupplementaryBatch, replace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if replace {
		s.batches = nil
	}
	s.batches = append(s.batches, batch)
	return nil
}

func (s *MemorySource) Batches(_ context.Context) ([]models.SupplementaryBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SupplementaryBatch(nil), s.batches...), nil
}

func (s *MemorySource) Entries(ctx context.Context) ([]models.SupplementaryEntry, error) {
	batches, _ := s.Batches(ctx)
	return flattenBatches(batches), nil
}

func flattenBatches(batches []models.SupplementaryBatch) []models.SupplementaryEntry {
	var out []models.SupplementaryEntry
	for _, b := range batches {
		out = append(out, b.Entries...)
	}
	return out
}
