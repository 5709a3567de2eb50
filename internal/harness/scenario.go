// Package harness runs declarative reduction scenarios. A scenario YAML
// file describes an input term structurally, an optional step bound, and
// expectations on the outcome; golden tests serialize the full trace to
// canonical JSON and pin it byte-for-byte.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario for the reduction engine.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are named
	// after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Term is the input term in structural encoding.
	Term *TermNode `yaml:"term"`

	// StepBound overrides the engine default when positive.
	StepBound int `yaml:"step_bound,omitempty"`

	// RunToken pins the run token for deterministic golden comparison.
	// Defaults to "test-run-default".
	RunToken string `yaml:"run_token,omitempty"`

	// Expect specifies the expected outcome.
	Expect ExpectClause `yaml:"expect"`
}

// ExpectClause specifies the expected reduction outcome. Either Error is
// set, or NormalForm (with optional Steps and Rules) is.
type ExpectClause struct {
	// NormalForm is the rendered normal form, e.g. "&M{2, 4}".
	NormalForm string `yaml:"normal_form,omitempty"`

	// Steps is the exact interaction count. Nil means unchecked.
	Steps *int `yaml:"steps,omitempty"`

	// Rules is the exact rule sequence of the trace. Empty means
	// unchecked.
	Rules []string `yaml:"rules,omitempty"`

	// Error is an expected engine error code (TIMEOUT, ARITHMETIC,
	// NO_APPLICABLE_RULE, CAPTURE).
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently relaxing a check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Term == nil {
		return fmt.Errorf("term is required")
	}
	if s.StepBound < 0 {
		return fmt.Errorf("step_bound must be non-negative")
	}

	hasError := s.Expect.Error != ""
	hasForm := s.Expect.NormalForm != ""
	if hasError && hasForm {
		return fmt.Errorf("expect: error and normal_form are mutually exclusive")
	}
	if !hasError && !hasForm {
		return fmt.Errorf("expect: one of normal_form or error is required")
	}
	if hasError {
		switch s.Expect.Error {
		case "TIMEOUT", "ARITHMETIC", "NO_APPLICABLE_RULE", "CAPTURE":
		default:
			return fmt.Errorf("expect: unknown error code %q", s.Expect.Error)
		}
		if s.Expect.Steps != nil || len(s.Expect.Rules) != 0 {
			return fmt.Errorf("expect: steps/rules cannot be combined with error")
		}
	}

	// Surface term-shape problems at load time, before any engine runs.
	if _, err := s.Term.Build(); err != nil {
		return fmt.Errorf("term: %w", err)
	}
	return nil
}
