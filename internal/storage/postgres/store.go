package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quoteScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS quote_check_runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	total       INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	by_class    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS quote_check_results (
	run_id      TEXT NOT NULL,
	scenario_id TEXT NOT NULL,
	kind        TEXT NOT NULL,
	token_in    TEXT NOT NULL,
	token_out   TEXT NOT NULL,
	status      TEXT NOT NULL,
	class       TEXT NOT NULL,
	error       TEXT NOT NULL,
	skip_reason TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	latency_ms  BIGINT NOT NULL,
	tolerance   TEXT NOT NULL,
	diagnostics JSONB NOT NULL,
	checked_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, scenario_id)
);
`

// Store persists verification results and run summaries.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the result tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutResults implements storage.Storage with a background context.
func (s *Store) PutResults(results []model.ScenarioResult) error {
	return s.UpsertResults(context.Background(), results)
}

// UpsertResults inserts or replaces scenario results keyed by run and scenario.
func (s *Store) UpsertResults(ctx context.Context, results []model.ScenarioResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range results {
		diagnostics, err := json.Marshal(r.Diagnostics)
		if err != nil {
			return fmt.Errorf("marshal diagnostics: %w", err)
		}
		batch.Queue(`
			INSERT INTO quote_check_results (
				run_id, scenario_id, kind, token_in, token_out, status, class, error, skip_reason,
				status_code, latency_ms, tolerance, diagnostics, checked_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (run_id, scenario_id)
			DO UPDATE SET
				status = EXCLUDED.status,
				class = EXCLUDED.class,
				error = EXCLUDED.error,
				skip_reason = EXCLUDED.skip_reason,
				status_code = EXCLUDED.status_code,
				latency_ms = EXCLUDED.latency_ms,
				tolerance = EXCLUDED.tolerance,
				diagnostics = EXCLUDED.diagnostics,
				checked_at = EXCLUDED.checked_at
		`,
			r.RunID,
			r.ScenarioID,
			string(r.Kind),
			r.TokenIn,
			r.TokenOut,
			string(r.Status),
			string(r.Class),
			r.Error,
			r.SkipReason,
			r.StatusCode,
			r.LatencyMs,
			r.Tolerance,
			diagnostics,
			r.CheckedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range results {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun upserts a run summary.
func (s *Store) SaveRun(ctx context.Context, sum model.RunSummary) error {
	if sum.RunID == "" {
		return fmt.Errorf("run id required")
	}
	byClass, err := json.Marshal(sum.ByClass)
	if err != nil {
		return fmt.Errorf("marshal class counts: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quote_check_runs (run_id, started_at, finished_at, total, passed, failed, skipped, by_class)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE
		SET finished_at = EXCLUDED.finished_at,
			total = EXCLUDED.total,
			passed = EXCLUDED.passed,
			failed = EXCLUDED.failed,
			skipped = EXCLUDED.skipped,
			by_class = EXCLUDED.by_class
	`, sum.RunID, sum.StartedAt, sum.FinishedAt, sum.Total, sum.Passed, sum.Failed, sum.Skipped, byClass)
	return err
}
