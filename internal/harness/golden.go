package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/miwamasa/icnet/internal/term"
)

// TraceSnapshot is the canonical-JSON view of a scenario execution that
// golden files pin. Every field is deterministic: the run token is fixed
// by the scenario, fresh names come from a zeroed clock, and rendering is
// stable.
type TraceSnapshot struct {
	ScenarioName string
	RunToken     string
	Status       string
	Steps        int
	NormalForm   string
	Trace        []engineStep
}

type engineStep struct {
	Step   int
	Rule   string
	Before string
	After  string
}

func snapshotOf(scenario *Scenario, result *Result) TraceSnapshot {
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		RunToken:     result.RunToken,
		Status:       result.Status,
		Steps:        result.Steps,
		NormalForm:   result.NormalForm,
	}
	for _, rec := range result.Trace {
		snap.Trace = append(snap.Trace, engineStep{
			Step:   rec.Step,
			Rule:   string(rec.Rule),
			Before: rec.BeforeText,
			After:  rec.AfterText,
		})
	}
	return snap
}

// canonicalBytes serializes the snapshot as canonical JSON so golden
// comparison is byte-exact and key order is never at encoding/json's
// mercy.
func (s TraceSnapshot) canonicalBytes() ([]byte, error) {
	trace := make([]any, len(s.Trace))
	for i, step := range s.Trace {
		trace[i] = map[string]any{
			"step":   step.Step,
			"rule":   step.Rule,
			"before": step.Before,
			"after":  step.After,
		}
	}
	return term.MarshalCanonicalAny(map[string]any{
		"scenario_name": s.ScenarioName,
		"run_token":     s.RunToken,
		"status":        s.Status,
		"steps":         s.Steps,
		"normal_form":   s.NormalForm,
		"trace":         trace,
	})
}

// RunWithGolden executes a scenario, checks its expect clause, and
// compares the trace snapshot against testdata/golden/{name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario: %v", err)
	}
	for _, failure := range Check(scenario, result) {
		t.Error(failure)
	}

	data, err := snapshotOf(scenario, result).canonicalBytes()
	if err != nil {
		t.Fatalf("serialize snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}
