package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/miwamasa/icnet/internal/term"
)

// DefaultStepBound is the number of interactions a reduction may perform
// before it is declared divergent.
const DefaultStepBound = 10000

// StepRecord describes one interaction in a reduction trace.
type StepRecord struct {
	Step   int       `json:"step"`
	Rule   Rule      `json:"rule"`
	Before term.Term `json:"-"`
	After  term.Term `json:"-"`
	// Rendered forms, captured at trace time so a stored trace survives
	// without the terms themselves.
	BeforeText string `json:"before"`
	AfterText  string `json:"after"`
}

// Result is the outcome of a completed reduction.
type Result struct {
	RunToken   string
	Steps      int
	InputHash  string
	ResultHash string
	TraceHash  string
	// Trace is populated only when the engine was built WithTrace.
	Trace []StepRecord
}

// Engine reduces terms under leftmost-outermost order. An Engine is NOT
// safe for concurrent use; its fresh-name clock is shared by every
// reduction it runs, which is what keeps labels globally unique across a
// session.
type Engine struct {
	clock     *Clock
	stepBound int
	trace     bool
	runGen    RunTokenGenerator
	logger    *slog.Logger
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithStepBound overrides the divergence bound. Zero or negative values
// are ignored.
func WithStepBound(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.stepBound = n
		}
	}
}

// WithTrace makes Reduce record every interaction in Result.Trace.
func WithTrace() EngineOption {
	return func(e *Engine) { e.trace = true }
}

// WithRunTokenGenerator replaces the UUIDv7 run-token source, typically
// with a FixedGenerator in tests.
func WithRunTokenGenerator(g RunTokenGenerator) EngineOption {
	return func(e *Engine) { e.runGen = g }
}

// WithClock replaces the fresh-name clock, typically to pin the counter
// in tests that assert on generated identifiers.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the structured logger. Reduction logs at Debug per
// step and Info per run.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine builds an Engine with the default step bound, a fresh clock,
// and UUIDv7 run tokens.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:     NewClock(),
		stepBound: DefaultStepBound,
		runGen:    UUIDv7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FreshName mints an identifier that cannot collide with any user-written
// variable. The "$" prefix is reserved to the engine.
func (e *Engine) FreshName(prefix string) string {
	return fmt.Sprintf("$%s%d", prefix, e.clock.Next())
}

// FreshLabel mints a duplication label distinct from every user label and
// every previously minted one.
func (e *Engine) FreshLabel() string {
	return fmt.Sprintf("$L%d", e.clock.Next())
}

// Step performs exactly one interaction at the leftmost-outermost redex.
// It returns ErrNoRedex when t is in normal form.
func (e *Engine) Step(t term.Term) (term.Term, Rule, error) {
	next, rule, fired, err := e.stepTerm(t)
	if err != nil {
		return nil, "", err
	}
	if !fired {
		return t, "", ErrNoRedex
	}
	return next, rule, nil
}

// Reduce rewrites t to normal form, or fails with a timeout error once
// the step bound is exceeded. The returned Result always carries the
// input and result hashes; the trace is captured only WithTrace.
func (e *Engine) Reduce(t term.Term) (term.Term, *Result, error) {
	runToken := e.runGen.Generate()
	inputHash, err := term.Hash(t)
	if err != nil {
		return nil, nil, fmt.Errorf("hash input: %w", err)
	}

	e.logger.Debug("reduce start",
		"run_token", runToken,
		"input_hash", inputHash,
		"step_bound", e.stepBound)

	current := t
	steps := 0
	var records []StepRecord

	for {
		next, rule, fired, err := e.stepTerm(current)
		if err != nil {
			var re *ReduceError
			if errors.As(err, &re) {
				re.RunToken = runToken
				re.Steps = steps
			}
			e.logger.Debug("reduce failed",
				"run_token", runToken, "steps", steps, "error", err)
			return nil, nil, err
		}
		if !fired {
			break
		}
		steps++
		if steps > e.stepBound {
			return nil, nil, NewTimeoutError(runToken, steps, e.stepBound)
		}
		if e.trace {
			records = append(records, StepRecord{
				Step:       steps,
				Rule:       rule,
				Before:     current,
				After:      next,
				BeforeText: term.String(current),
				AfterText:  term.String(next),
			})
		}
		e.logger.Debug("interaction",
			"run_token", runToken, "step", steps, "rule", string(rule))
		current = next
	}

	resultHash, err := term.Hash(current)
	if err != nil {
		return nil, nil, fmt.Errorf("hash result: %w", err)
	}
	result := &Result{
		RunToken:   runToken,
		Steps:      steps,
		InputHash:  inputHash,
		ResultHash: resultHash,
		Trace:      records,
	}
	if e.trace {
		th, err := traceHash(records)
		if err != nil {
			return nil, nil, fmt.Errorf("hash trace: %w", err)
		}
		result.TraceHash = th
	}

	e.logger.Info("reduce done",
		"run_token", runToken,
		"steps", steps,
		"result_hash", resultHash)
	return current, result, nil
}

// traceHash computes the domain-separated digest of a trace. The hashed
// form is the canonical encoding of the step/rule/rendered-text triples,
// so two runs with identical interactions always agree.
func traceHash(records []StepRecord) (string, error) {
	entries := make([]any, len(records))
	for i, r := range records {
		entries[i] = map[string]any{
			"step":   r.Step,
			"rule":   string(r.Rule),
			"before": r.BeforeText,
			"after":  r.AfterText,
		}
	}
	data, err := term.MarshalCanonicalAny(entries)
	if err != nil {
		return "", err
	}
	return term.TraceHash(data), nil
}
