package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/botirk38/semanticmap/aggregate"
	"github.com/botirk38/semanticmap/profile"
	"github.com/botirk38/semanticmap/similarity"
	"github.com/botirk38/semanticmap/types"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		id_column TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS similarities (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		item TEXT NOT NULL,
		target TEXT NOT NULL,
		value REAL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		item TEXT NOT NULL,
		complexity REAL,
		sparsity REAL,
		sd REAL
	)`,
	`CREATE TABLE IF NOT EXISTS group_means (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		item_group TEXT NOT NULL,
		target_group TEXT NOT NULL,
		mean REAL,
		n INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		item_group TEXT NOT NULL,
		best TEXT,
		best_score REAL,
		second TEXT,
		second_score REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_similarities_run ON similarities(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_group_means_run ON group_means(run_id)`,
}

// SQLiteStore persists mapping runs to a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and its tables.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// nullable maps NaN to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !types.IsMissing(v)}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// SaveReport writes one run in a single transaction and returns its id.
// p and r may be nil.
func (s *SQLiteStore) SaveReport(ctx context.Context, name string, m *similarity.Matrix, p *profile.Profiles, r *aggregate.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (name, created_at, id_column) VALUES (?, ?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339), m.IDColumn)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertSimilarities(ctx, tx, runID, m); err != nil {
		return 0, err
	}
	if p != nil {
		if err := insertProfiles(ctx, tx, runID, p); err != nil {
			return 0, err
		}
	}
	if r != nil {
		if err := insertGroups(ctx, tx, runID, r); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func insertSimilarities(ctx context.Context, tx *sql.Tx, runID int64, m *similarity.Matrix) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO similarities (run_id, item, target, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if _, err := stmt.ExecContext(ctx, runID, m.RowLabels[i], m.ColLabels[j], nullable(m.At(i, j))); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertProfiles(ctx context.Context, tx *sql.Tx, runID int64, p *profile.Profiles) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO profiles (run_id, item, complexity, sparsity, sd) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, st := range p.Stats {
		if _, err := stmt.ExecContext(ctx, runID, p.Labels[i], nullable(st.Complexity), nullable(st.Sparsity), nullable(st.StdDev)); err != nil {
			return err
		}
	}
	return nil
}

func insertGroups(ctx context.Context, tx *sql.Tx, runID int64, r *aggregate.Result) error {
	means, err := tx.PrepareContext(ctx, `INSERT INTO group_means (run_id, item_group, target_group, mean, n) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer means.Close()

	for i, g := range r.ItemGroups {
		for j, t := range r.TargetGroups {
			if _, err := means.ExecContext(ctx, runID, g, t, nullable(r.Means.At(i, j)), r.Counts[i][j]); err != nil {
				return err
			}
		}
	}

	matches, err := tx.PrepareContext(ctx, `INSERT INTO matches (run_id, item_group, best, best_score, second, second_score) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer matches.Close()

	for _, m := range r.Matches {
		if _, err := matches.ExecContext(ctx, runID, m.ItemGroup,
			nullString(m.Best), nullable(m.BestScore),
			nullString(m.Second), nullable(m.SecondScore)); err != nil {
			return err
		}
	}
	return nil
}
