package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/miwamasa/icnet/internal/engine"
	"github.com/miwamasa/icnet/internal/net"
	"github.com/miwamasa/icnet/internal/term"
)

// Run is a stored reduction run row.
type Run struct {
	Token         string
	Status        string // "completed" | "timeout" | "error"
	Steps         int
	StepBound     int
	InputHash     string
	ResultHash    string // empty unless Status == "completed"
	ResultText    string
	ErrorCode     string // empty unless Status != "completed"
	EngineVersion string
}

// Step is a stored trace row.
type Step struct {
	RunToken   string
	Seq        int
	Rule       string
	BeforeText string
	AfterText  string
}

// Run status values.
const (
	StatusCompleted = "completed"
	StatusTimeout   = "timeout"
	StatusError     = "error"
)

// RunFromResult converts a successful reduction into a Run row plus its
// Step rows.
func RunFromResult(res *engine.Result, stepBound int, resultText string) (Run, []Step) {
	run := Run{
		Token:         res.RunToken,
		Status:        StatusCompleted,
		Steps:         res.Steps,
		StepBound:     stepBound,
		InputHash:     res.InputHash,
		ResultHash:    res.ResultHash,
		ResultText:    resultText,
		EngineVersion: term.EngineVersion,
	}
	steps := make([]Step, len(res.Trace))
	for i, rec := range res.Trace {
		steps[i] = Step{
			RunToken:   res.RunToken,
			Seq:        rec.Step,
			Rule:       string(rec.Rule),
			BeforeText: rec.BeforeText,
			AfterText:  rec.AfterText,
		}
	}
	return run, steps
}

// FailedRun builds a Run row for a reduction that ended in an error.
func FailedRun(err *engine.ReduceError, stepBound int, inputHash string) Run {
	status := StatusError
	if err.Code == engine.ErrCodeTimeout {
		status = StatusTimeout
	}
	return Run{
		Token:         err.RunToken,
		Status:        status,
		Steps:         err.Steps,
		StepBound:     stepBound,
		InputHash:     inputHash,
		ErrorCode:     string(err.Code),
		EngineVersion: term.EngineVersion,
	}
}

// WriteRun inserts a run record. Uses ON CONFLICT(token) DO NOTHING for
// idempotency: replaying the same run is silently ignored. Other
// constraint violations still return errors.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(token, status, steps, step_bound, input_hash, result_hash, result_text, error_code, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.Status,
		run.Steps,
		run.StepBound,
		run.InputHash,
		run.ResultHash,
		run.ResultText,
		run.ErrorCode,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteSteps inserts the trace rows of a run in one transaction. Rows are
// keyed (run_token, seq); duplicates are silently ignored, so writing a
// trace twice is safe.
//
// The run referenced by each row must already exist (foreign key).
func (s *Store) WriteSteps(ctx context.Context, steps []Step) error {
	if len(steps) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write steps: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_steps
		(run_token, seq, rule, term_before_text, term_after_text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_token, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write steps: prepare: %w", err)
	}
	defer stmt.Close()

	for _, step := range steps {
		if _, err := stmt.ExecContext(ctx,
			step.RunToken, step.Seq, step.Rule, step.BeforeText, step.AfterText,
		); err != nil {
			return fmt.Errorf("write steps: seq %d: %w", step.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write steps: commit: %w", err)
	}
	return nil
}

// PathQuery is a stored path-enumeration audit record.
type PathQuery struct {
	ID        int64
	NetName   string
	StartID   string
	EndID     string
	PathCount int
	Paths     []net.Path
}

// WritePathQuery records a path enumeration and returns the assigned row
// id. Paths serialize as JSON in enumeration order, which is the audit
// trail's ordering contract.
func (s *Store) WritePathQuery(ctx context.Context, netName, startID, endID string, paths []net.Path) (int64, error) {
	if paths == nil {
		paths = []net.Path{}
	}
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return 0, fmt.Errorf("write path query: marshal: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO path_queries (net_name, start_id, end_id, path_count, paths_json)
		VALUES (?, ?, ?, ?, ?)
	`, netName, startID, endID, len(paths), string(pathsJSON))
	if err != nil {
		return 0, fmt.Errorf("write path query: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write path query: last insert id: %w", err)
	}
	return id, nil
}
