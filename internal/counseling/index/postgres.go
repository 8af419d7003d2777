// internal/counseling/index/postgres.go
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"seatsathi-workers/internal/common/database"
	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/models"

	"github.com/lib/pq"
)

const (
	entriesTable   = "cutoff_entries"
	metaTable      = "cutoff_meta"
	versionMetaKey = "data_version"
)

// Schema is applied by Populate before the first copy.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS cutoff_entries (
		seq          INTEGER PRIMARY KEY,
		college_code TEXT    NOT NULL,
		college_name TEXT    NOT NULL,
		branch       TEXT    NOT NULL,
		branch_code  TEXT    NOT NULL,
		family       TEXT    NOT NULL,
		is_pure      BOOLEAN NOT NULL,
		location     TEXT    NOT NULL,
		year         TEXT    NOT NULL,
		round        TEXT    NOT NULL,
		category     TEXT    NOT NULL,
		cutoff_rank  INTEGER NOT NULL,
		source       TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cutoff_family_category ON cutoff_entries (family, category)`,
	`CREATE INDEX IF NOT EXISTS idx_cutoff_family_location_category ON cutoff_entries (family, location, category)`,
	`CREATE TABLE IF NOT EXISTS cutoff_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

var entryColumns = []string{
	"seq", "college_code", "college_name", "branch", "branch_code", "family",
	"is_pure", "location", "year", "round", "category", "cutoff_rank", "source",
}

var selectColumns = strings.Join(entryColumns, ", ")

// ErrStoreNotPopulated is returned by stores queried before Populate.
var ErrStoreNotPopulated = errors.New("index store not populated")

// PostgresStore persists the flattened index so it survives restarts and can
// be shared between worker replicas.
type PostgresStore struct {
	client *database.PostgresClient
}

func NewPostgresStore(client *database.PostgresClient) *PostgresStore {
	return &PostgresStore{client: client}
}

func (s *PostgresStore) Name() string { return "postgres" }

// Populate replaces the table contents unless the stored version already
// matches.
func (s *PostgresStore) Populate(ctx context.Context, entries []models.CutoffIndexEntry, version string) error {
	if err := s.client.Migrate(ctx, Schema...); err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}

	current, err := s.storedVersion(ctx)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("read index version", err)
	}
	if current == version {
		return nil
	}

	return database.WithTx(ctx, s.client.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+entriesTable); err != nil {
			return apperrors.NewQueryExecutionFailedError("clear index", err)
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn(entriesTable, entryColumns...))
		if err != nil {
			return apperrors.NewQueryExecutionFailedError("prepare copy", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx,
				e.Seq, e.CollegeCode, e.CollegeName, e.Branch, e.BranchCode, string(e.Family),
				e.IsPure, e.Location, e.Year, e.Round, e.Category, e.Rank, e.Source,
			); err != nil {
				return apperrors.NewQueryExecutionFailedError("copy entry", err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return apperrors.NewQueryExecutionFailedError("flush copy", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO `+metaTable+` (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
			versionMetaKey, version)
		if err != nil {
			return apperrors.NewQueryExecutionFailedError("store index version", err)
		}
		return nil
	})
}

func (s *PostgresStore) storedVersion(ctx context.Context) (string, error) {
	var v string
	err := s.client.DB.QueryRowContext(ctx,
		`SELECT value FROM `+metaTable+` WHERE key = $1`, versionMetaKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *PostgresStore) Candidates(ctx context.Context, f Filter) ([]models.CutoffIndexEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM ` + entriesTable + ` WHERE category = $1`
	args := []interface{}{f.Category}
	if f.Families != nil {
		families := make([]string, len(f.Families))
		for i, fam := range f.Families {
			families[i] = string(fam)
		}
		query += ` AND family = ANY($2)`
		args = append(args, pq.Array(families))
	}
	query += ` ORDER BY seq`

	rows, err := s.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("select candidates", err)
	}
	defer rows.Close()

	var out []models.CutoffIndexEntry
	for rows.Next() {
		var (
			e      models.CutoffIndexEntry
			family string
		)
		if err := rows.Scan(&e.Seq, &e.CollegeCode, &e.CollegeName, &e.Branch, &e.BranchCode, &family,
			&e.IsPure, &e.Location, &e.Year, &e.Round, &e.Category, &e.Rank, &e.Source); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		e.Family = models.Family(family)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("iterate candidates", err)
	}
	return out, nil
}
