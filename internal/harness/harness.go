package harness

import (
	"errors"
	"fmt"

	"github.com/miwamasa/icnet/internal/engine"
	"github.com/miwamasa/icnet/internal/term"
)

// DefaultRunToken is used when a scenario does not pin its own token.
// A fixed token keeps golden files byte-stable.
const DefaultRunToken = "test-run-default"

// Result captures one scenario execution.
type Result struct {
	RunToken   string
	Status     string // "completed" | error code
	Steps      int
	NormalForm string // rendered, empty on failure
	ResultHash string
	Rules      []string
	Trace      []engine.StepRecord
	Err        error // the engine error when Status != "completed"
}

// Run executes a scenario: builds the term, reduces it with a traced
// engine, and returns the outcome. Expected engine failures (timeout,
// arithmetic, and the rest of the reduction taxonomy) land in the Result;
// only harness-level problems (a term that does not build) return an
// error.
func Run(scenario *Scenario) (*Result, error) {
	input, err := scenario.Term.Build()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	runToken := scenario.RunToken
	if runToken == "" {
		runToken = DefaultRunToken
	}

	opts := []engine.EngineOption{
		engine.WithTrace(),
		engine.WithRunTokenGenerator(engine.NewFixedGenerator(runToken)),
	}
	if scenario.StepBound > 0 {
		opts = append(opts, engine.WithStepBound(scenario.StepBound))
	}
	eng := engine.NewEngine(opts...)

	final, res, err := eng.Reduce(input)
	if err != nil {
		var re *engine.ReduceError
		if !errors.As(err, &re) {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		return &Result{
			RunToken: runToken,
			Status:   string(re.Code),
			Steps:    re.Steps,
			Err:      re,
		}, nil
	}

	rules := make([]string, len(res.Trace))
	for i, rec := range res.Trace {
		rules[i] = string(rec.Rule)
	}
	return &Result{
		RunToken:   res.RunToken,
		Status:     "completed",
		Steps:      res.Steps,
		NormalForm: term.String(final),
		ResultHash: res.ResultHash,
		Rules:      rules,
		Trace:      res.Trace,
	}, nil
}

// Check compares a result against the scenario's expect clause and
// returns every mismatch. An empty slice means the scenario passed.
func Check(scenario *Scenario, result *Result) []error {
	var failures []error

	if scenario.Expect.Error != "" {
		if result.Status != scenario.Expect.Error {
			failures = append(failures, fmt.Errorf(
				"expected error %s, got status %s", scenario.Expect.Error, result.Status))
		}
		return failures
	}

	if result.Status != "completed" {
		failures = append(failures, fmt.Errorf(
			"expected normal form %q, got error %s: %v",
			scenario.Expect.NormalForm, result.Status, result.Err))
		return failures
	}

	if result.NormalForm != scenario.Expect.NormalForm {
		failures = append(failures, fmt.Errorf(
			"normal form mismatch: want %q, got %q",
			scenario.Expect.NormalForm, result.NormalForm))
	}
	if scenario.Expect.Steps != nil && result.Steps != *scenario.Expect.Steps {
		failures = append(failures, fmt.Errorf(
			"step count mismatch: want %d, got %d",
			*scenario.Expect.Steps, result.Steps))
	}
	if len(scenario.Expect.Rules) > 0 {
		if !equalStrings(scenario.Expect.Rules, result.Rules) {
			failures = append(failures, fmt.Errorf(
				"rule sequence mismatch: want %v, got %v",
				scenario.Expect.Rules, result.Rules))
		}
	}
	return failures
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
