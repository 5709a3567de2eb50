package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// GetRun fetches a run by token. Returns ErrNotFound when absent.
func (s *Store) GetRun(ctx context.Context, token string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, status, steps, step_bound, input_hash, result_hash,
		       result_text, error_code, engine_version
		FROM runs WHERE token = ?
	`, token)

	var run Run
	err := row.Scan(
		&run.Token, &run.Status, &run.Steps, &run.StepBound,
		&run.InputHash, &run.ResultHash, &run.ResultText,
		&run.ErrorCode, &run.EngineVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", token, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// ListSteps fetches a run's trace in step order.
func (s *Store) ListSteps(ctx context.Context, token string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_token, seq, rule, term_before_text, term_after_text
		FROM run_steps
		WHERE run_token = ?
		ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var step Step
		if err := rows.Scan(
			&step.RunToken, &step.Seq, &step.Rule,
			&step.BeforeText, &step.AfterText,
		); err != nil {
			return nil, fmt.Errorf("list steps: scan: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return steps, nil
}

// ListRuns fetches all runs. Ordering is by token (UUIDv7 tokens are
// time-sortable, so this is also creation order for production tokens).
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, status, steps, step_bound, input_hash, result_hash,
		       result_text, error_code, engine_version
		FROM runs
		ORDER BY token ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.Token, &run.Status, &run.Steps, &run.StepBound,
			&run.InputHash, &run.ResultHash, &run.ResultText,
			&run.ErrorCode, &run.EngineVersion,
		); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetPathQuery fetches a stored path query by id, deserializing its
// paths. Returns ErrNotFound when absent.
func (s *Store) GetPathQuery(ctx context.Context, id int64) (*PathQuery, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, net_name, start_id, end_id, path_count, paths_json
		FROM path_queries WHERE id = ?
	`, id)

	var (
		pq        PathQuery
		pathsJSON string
	)
	err := row.Scan(&pq.ID, &pq.NetName, &pq.StartID, &pq.EndID, &pq.PathCount, &pathsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("path query %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get path query: %w", err)
	}

	if err := json.Unmarshal([]byte(pathsJSON), &pq.Paths); err != nil {
		return nil, fmt.Errorf("get path query: unmarshal paths: %w", err)
	}
	return &pq, nil
}
