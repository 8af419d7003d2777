// internal/counseling/dataset/dir.go
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/models"
)

// MetadataFile is read from the data directory when present.
const MetadataFile = "metadata.json"

// DirLoader reads every *.json partition in a directory. Each partition maps
// college code to college; partitions sharing a code are merged.
type DirLoader struct {
	dir    string
	logger logger.Logger
}

func NewDirLoader(dir string, log logger.Logger) *DirLoader {
	return &DirLoader{
		dir:    dir,
		logger: log.WithFields(map[string]interface{}{"component": "dataset", "dir": dir}),
	}
}

func (l *DirLoader) Load(ctx context.Context) (*models.Dataset, error) {
	start := time.Now()

	files, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, errors.NewDatasetLoadFailedError(l.dir, err)
	}
	sort.Strings(files)

	ds := &models.Dataset{Colleges: make(map[string]models.RawCollege)}
	var meta *models.Metadata
	partitions := 0

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if filepath.Base(path) == MetadataFile {
			m, err := readMetadata(path)
			if err != nil {
				return nil, errors.NewDatasetLoadFailedError(path, err)
			}
			meta = m
			continue
		}

		part, err := readPartition(path)
		if err != nil {
			return nil, errors.NewDatasetLoadFailedError(path, err)
		}
		Merge(ds.Colleges, part)
		partitions++
	}

	if partitions == 0 {
		return nil, errors.NewDatasetLoadFailedError(l.dir, fmt.Errorf("no partition files found"))
	}

	if meta != nil {
		ds.Metadata = *meta
	} else {
		ds.Metadata = Describe(ds.Colleges)
	}

	l.logger.Info("dataset loaded", map[string]interface{}{
		"partitions": partitions,
		"colleges":   len(ds.Colleges),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return ds, nil
}

func readPartition(path string) (map[string]models.RawCollege, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var part map[string]models.RawCollege
	if err := json.Unmarshal(data, &part); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	for code, college := range part {
		if college.Code == "" {
			college.Code = code
			part[code] = college
		}
	}
	return part, nil
}

func readMetadata(path string) (*models.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta models.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &meta, nil
}

// Merge folds src into dst. Colleges sharing a code keep the union of their
// branches, and a leaf present in both takes the value from src.
func Merge(dst, src map[string]models.RawCollege) {
	for code, college := range src {
		existing, ok := dst[code]
		if !ok {
			dst[code] = cloneCollege(college)
			continue
		}
		if existing.Name == "" {
			existing.Name = college.Name
		}
		if existing.Branches == nil {
			existing.Branches = make(map[string]models.BranchRecord)
		}
		for branch, record := range college.Branches {
			existing.Branches[branch] = mergeRecord(existing.Branches[branch], record)
		}
		dst[code] = existing
	}
}

func mergeRecord(dst, src models.BranchRecord) models.BranchRecord {
	if dst == nil {
		dst = make(models.BranchRecord)
	}
	for year, rounds := range src {
		if dst[year] == nil {
			dst[year] = make(models.RoundRanks)
		}
		for round, categories := range rounds {
			if dst[year][round] == nil {
				dst[year][round] = make(models.CategoryRanks)
			}
			for category, rank := range categories {
				dst[year][round][category] = rank
			}
		}
	}
	return dst
}

func cloneCollege(c models.RawCollege) models.RawCollege {
	out := models.RawCollege{Code: c.Code, Name: c.Name, Branches: make(map[string]models.BranchRecord, len(c.Branches))}
	for branch, record := range c.Branches {
		out.Branches[branch] = mergeRecord(nil, record)
	}
	return out
}
