package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miwamasa/icnet/internal/engine"
	"github.com/miwamasa/icnet/internal/harness"
	"github.com/miwamasa/icnet/internal/store"
	"github.com/miwamasa/icnet/internal/term"
)

// ReduceOptions holds flags for the reduce command.
type ReduceOptions struct {
	*RootOptions
	Scenario  string
	Database  string
	StepBound int
	Trace     bool
}

// ReduceOutput is the JSON payload for a completed reduction.
type ReduceOutput struct {
	RunToken   string   `json:"run_token"`
	NormalForm string   `json:"normal_form"`
	Steps      int      `json:"steps"`
	ResultHash string   `json:"result_hash"`
	Rules      []string `json:"rules,omitempty"`
}

// NewReduceCommand creates the reduce command.
func NewReduceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReduceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reduce",
		Short: "Reduce a scenario term to normal form",
		Long: `Load a term scenario from YAML, reduce it to normal form, and print
the result. With --trace, every interaction is shown; with --db, the
run and its trace are persisted for later inspection.

Examples:
  icnet reduce --scenario scenarios/shared-sum.yaml
  icnet reduce --scenario scenarios/commute.yaml --trace
  icnet reduce --scenario scenarios/omega.yaml --steps 100 --db icnet.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "path to scenario YAML (required)")
	_ = cmd.MarkFlagRequired("scenario")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the run to this SQLite database")
	cmd.Flags().IntVar(&opts.StepBound, "steps", 0, "override the scenario's step bound")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print every interaction")

	return cmd
}

func runReduce(opts *ReduceOptions, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(opts.Scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if opts.StepBound > 0 {
		scenario.StepBound = opts.StepBound
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if opts.Database != "" {
		if err := persistRun(scenario, result, opts.Database); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
	}

	if result.Status != "completed" {
		if opts.Format == "json" {
			_ = out.JSONError(result.Status, result.Err.Error(), map[string]any{
				"run_token": result.RunToken,
				"steps":     result.Steps,
			})
		} else {
			out.Textf("reduction failed [%s]: %v", result.Status, result.Err)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("reduction failed: %s", result.Status))
	}

	if opts.Format == "json" {
		payload := ReduceOutput{
			RunToken:   result.RunToken,
			NormalForm: result.NormalForm,
			Steps:      result.Steps,
			ResultHash: result.ResultHash,
		}
		if opts.Trace {
			payload.Rules = result.Rules
		}
		return out.JSON(payload)
	}

	if opts.Trace {
		for _, rec := range result.Trace {
			out.Textf("%4d %-14s %s", rec.Step, rec.Rule, rec.AfterText)
		}
	}
	out.Textf("%s", result.NormalForm)
	out.Textf("steps: %d  run: %s", result.Steps, result.RunToken)
	return nil
}

// persistRun writes the run and, when traced, its steps.
func persistRun(scenario *harness.Scenario, result *harness.Result, dbPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	bound := scenario.StepBound
	if bound == 0 {
		bound = engine.DefaultStepBound
	}

	if result.Status != "completed" {
		var re *engine.ReduceError
		if !errors.As(result.Err, &re) {
			return fmt.Errorf("unexpected failure type: %w", result.Err)
		}
		inputTerm, err := scenario.Term.Build()
		if err != nil {
			return err
		}
		inputHash, err := term.Hash(inputTerm)
		if err != nil {
			return err
		}
		return st.WriteRun(ctx, store.FailedRun(re, bound, inputHash))
	}

	run := store.Run{
		Token:         result.RunToken,
		Status:        store.StatusCompleted,
		Steps:         result.Steps,
		StepBound:     bound,
		ResultHash:    result.ResultHash,
		ResultText:    result.NormalForm,
		EngineVersion: term.EngineVersion,
	}
	inputTerm, err := scenario.Term.Build()
	if err != nil {
		return err
	}
	run.InputHash, err = term.Hash(inputTerm)
	if err != nil {
		return err
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return err
	}

	steps := make([]store.Step, len(result.Trace))
	for i, rec := range result.Trace {
		steps[i] = store.Step{
			RunToken:   result.RunToken,
			Seq:        rec.Step,
			Rule:       string(rec.Rule),
			BeforeText: rec.BeforeText,
			AfterText:  rec.AfterText,
		}
	}
	return st.WriteSteps(ctx, steps)
}
