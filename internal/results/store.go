// Package results persists simulation rows and summaries: a SQLite store for
// durable runs plus CSV and Arrow IPC exporters for downstream analysis.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/panelmetrics/twfelab/internal/panel"
	"github.com/panelmetrics/twfelab/internal/simulate"
	"github.com/panelmetrics/twfelab/internal/summarize"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL,
    seed INTEGER NOT NULL,
    num_iter INTEGER NOT NULL
);

-- One row per estimated lag per replicate, tagged with the full parameter
-- configuration so summaries can be regrouped later.
CREATE TABLE IF NOT EXISTS simulations (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    num_units INTEGER NOT NULL,
    num_periods INTEGER NOT NULL,
    sigma_eps REAL NOT NULL,
    p_treat REAL NOT NULL,
    staggered INTEGER NOT NULL,
    het_unit TEXT NOT NULL,
    het_time TEXT NOT NULL,
    alpha REAL NOT NULL,
    beta REAL NOT NULL,
    mu_unit_fe REAL NOT NULL,
    sigma_unit_fe REAL NOT NULL,
    mu_time_fe REAL NOT NULL,
    sigma_time_fe REAL NOT NULL,
    mu_x REAL NOT NULL,
    sigma_x REAL NOT NULL,
    gamma REAL NOT NULL,
    lag INTEGER NOT NULL,
    estimate REAL NOT NULL,
    std_err REAL,
    p_value REAL,
    true_effect REAL
);
CREATE INDEX IF NOT EXISTS idx_simulations_run ON simulations(run_id);

CREATE TABLE IF NOT EXISTS summaries (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    num_units INTEGER NOT NULL,
    num_periods INTEGER NOT NULL,
    sigma_eps REAL NOT NULL,
    p_treat REAL NOT NULL,
    staggered INTEGER NOT NULL,
    het_unit TEXT NOT NULL,
    het_time TEXT NOT NULL,
    alpha REAL NOT NULL,
    beta REAL NOT NULL,
    mu_unit_fe REAL NOT NULL,
    sigma_unit_fe REAL NOT NULL,
    mu_time_fe REAL NOT NULL,
    sigma_time_fe REAL NOT NULL,
    mu_x REAL NOT NULL,
    sigma_x REAL NOT NULL,
    gamma REAL NOT NULL,
    bias_pre REAL,
    bias_post REAL,
    rmse_post REAL
);
`

// Store persists runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records a new run and returns its id.
func (s *Store) CreateRun(ctx context.Context, seed int64, numIter int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (created_at, seed, num_iter) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), seed, numIter)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	return res.LastInsertId()
}

// InsertRows writes all simulation rows of a run in one transaction.
// NaN fields are stored as NULL and come back as NaN from LoadRows.
func (s *Store) InsertRows(ctx context.Context, runID int64, rows []simulate.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO simulations (
		run_id, num_units, num_periods, sigma_eps, p_treat, staggered,
		het_unit, het_time, alpha, beta,
		mu_unit_fe, sigma_unit_fe, mu_time_fe, sigma_time_fe,
		mu_x, sigma_x, gamma,
		lag, estimate, std_err, p_value, true_effect
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			runID, r.NumUnits, r.NumPeriods, r.SigmaEps, r.PTreat, boolToInt(r.Staggered),
			r.HetUnit.String(), r.HetTime.String(), r.Alpha, r.Beta,
			r.MuUnitFE, r.SigmaUnitFE, r.MuTimeFE, r.SigmaTimeFE,
			r.MuX, r.SigmaX, r.Gamma,
			r.Lag, r.Estimate, nullable(r.StdErr), nullable(r.PValue), nullable(r.TrueEffect))
		if err != nil {
			return fmt.Errorf("failed to insert simulation row: %w", err)
		}
	}

	return tx.Commit()
}

// LoadRows reads back every simulation row of a run, in insertion order.
func (s *Store) LoadRows(ctx context.Context, runID int64) ([]simulate.Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		num_units, num_periods, sigma_eps, p_treat, staggered,
		het_unit, het_time, alpha, beta,
		mu_unit_fe, sigma_unit_fe, mu_time_fe, sigma_time_fe,
		mu_x, sigma_x, gamma,
		lag, estimate, std_err, p_value, true_effect
	FROM simulations WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation rows: %w", err)
	}
	defer rows.Close()

	var out []simulate.Row
	for rows.Next() {
		var r simulate.Row
		var staggered int
		var hetUnit, hetTime string
		var stdErr, pval, trueEffect sql.NullFloat64
		err := rows.Scan(
			&r.NumUnits, &r.NumPeriods, &r.SigmaEps, &r.PTreat, &staggered,
			&hetUnit, &hetTime, &r.Alpha, &r.Beta,
			&r.MuUnitFE, &r.SigmaUnitFE, &r.MuTimeFE, &r.SigmaTimeFE,
			&r.MuX, &r.SigmaX, &r.Gamma,
			&r.Lag, &r.Estimate, &stdErr, &pval, &trueEffect)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation row: %w", err)
		}
		r.Staggered = staggered != 0
		r.HetUnit = panel.HetUnit(hetUnit)
		r.HetTime = panel.HetTime(hetTime)
		r.StdErr = fromNullable(stdErr)
		r.PValue = fromNullable(pval)
		r.TrueEffect = fromNullable(trueEffect)
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertSummaries writes the aggregated summaries of a run.
func (s *Store) InsertSummaries(ctx context.Context, runID int64, summaries []summarize.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO summaries (
		run_id, num_units, num_periods, sigma_eps, p_treat, staggered,
		het_unit, het_time, alpha, beta,
		mu_unit_fe, sigma_unit_fe, mu_time_fe, sigma_time_fe,
		mu_x, sigma_x, gamma,
		bias_pre, bias_post, rmse_post
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sm := range summaries {
		_, err := stmt.ExecContext(ctx,
			runID, sm.NumUnits, sm.NumPeriods, sm.SigmaEps, sm.PTreat, boolToInt(sm.Staggered),
			sm.HetUnit.String(), sm.HetTime.String(), sm.Alpha, sm.Beta,
			sm.MuUnitFE, sm.SigmaUnitFE, sm.MuTimeFE, sm.SigmaTimeFE,
			sm.MuX, sm.SigmaX, sm.Gamma,
			nullable(sm.BiasPre), nullable(sm.BiasPost), nullable(sm.RMSEPost))
		if err != nil {
			return fmt.Errorf("failed to insert summary: %w", err)
		}
	}

	return tx.Commit()
}

// LatestRunID returns the id of the most recent run, or an error when the
// store has no runs.
func (s *Store) LatestRunID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to find latest run: %w", err)
	}
	return id, nil
}

// nullable maps NaN (and infinities, which SQLite cannot hold in a REAL
// column reliably) to NULL.
func nullable(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func fromNullable(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
