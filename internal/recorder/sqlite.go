package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"SpendSmart/internal/model"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists calculation history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS calculations (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id              TEXT NOT NULL UNIQUE,
			timestamp           INTEGER NOT NULL,
			universe            TEXT,
			monthly_investment  REAL,
			growth_rate         REAL,
			risk_free_rate      REAL,
			optimization_status TEXT,
			inflation_rate      REAL,
			inflation_fallback  INTEGER,
			weights_json        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calculations_ts ON calculations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS goal_outcomes (
			id                        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id                    TEXT NOT NULL,
			goal_name                 TEXT,
			target                    REAL,
			years                     INTEGER,
			achieved                  INTEGER,
			future_value              REAL,
			inflation_adjusted_target REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_goal_outcomes_run ON goal_outcomes(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCalculation(rec *CalculationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := rec.Result
	weights, err := json.Marshal(res.OptimalWeights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	ts := res.CalculatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO calculations
		(run_id, timestamp, universe, monthly_investment, growth_rate, risk_free_rate,
		 optimization_status, inflation_rate, inflation_fallback, weights_json)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID, ts.Unix(), strings.Join(rec.Universe, ","),
		rec.Request.MonthlyInvestment, rec.Request.GrowthRate, rec.Request.RiskFreeRate,
		string(res.OptimizationStatus), res.InflationRate, res.InflationFallback, string(weights),
	); err != nil {
		return fmt.Errorf("insert calculation: %w", err)
	}

	for _, g := range res.GoalsStatus {
		if _, err := tx.Exec(`INSERT INTO goal_outcomes
			(run_id, goal_name, target, years, achieved, future_value, inflation_adjusted_target)
			VALUES (?,?,?,?,?,?,?)`,
			rec.RunID, g.Goal.Name, g.Goal.Target, g.Goal.Years,
			g.Achieved, g.FutureValue, g.InflationAdjustedTarget,
		); err != nil {
			return fmt.Errorf("insert goal outcome: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns the latest calculations, newest first.
func (r *SQLiteRecorder) Recent(limit int) ([]CalculationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, timestamp, monthly_investment, growth_rate, risk_free_rate,
		optimization_status, inflation_rate, inflation_fallback, weights_json
		FROM calculations ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalculationSummary
	for rows.Next() {
		var (
			s       CalculationSummary
			ts      int64
			status  string
			weights string
		)
		if err := rows.Scan(&s.RunID, &ts, &s.MonthlyInvestment, &s.GrowthRate, &s.RiskFreeRate,
			&status, &s.InflationRate, &s.InflationFallback, &weights); err != nil {
			return nil, err
		}
		s.Timestamp = time.Unix(ts, 0)
		s.OptimizationStatus = model.OptimizationStatus(status)
		if err := json.Unmarshal([]byte(weights), &s.Weights); err != nil {
			return nil, fmt.Errorf("decode weights of %s: %w", s.RunID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range out {
		goals, err := r.goals(out[i].RunID)
		if err != nil {
			return nil, err
		}
		out[i].Goals = goals
	}
	return out, nil
}

func (r *SQLiteRecorder) goals(runID string) ([]model.ProjectionResult, error) {
	rows, err := r.db.Query(`SELECT goal_name, target, years, achieved, future_value, inflation_adjusted_target
		FROM goal_outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProjectionResult
	for rows.Next() {
		var g model.ProjectionResult
		if err := rows.Scan(&g.Goal.Name, &g.Goal.Target, &g.Goal.Years, &g.Achieved,
			&g.FutureValue, &g.InflationAdjustedTarget); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
