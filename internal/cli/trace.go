package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/miwamasa/icnet/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string
}

// TraceOutput is the JSON payload for a stored trace.
type TraceOutput struct {
	Run   store.Run    `json:"run"`
	Steps []store.Step `json:"steps"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print a stored reduction trace",
		Long: `Fetch a persisted reduction run and its step trace from the store.

Examples:
  icnet trace --db icnet.db --run 0191d2a8-5f6e-7000-8000-000000000001
  icnet trace --db icnet.db --run test-run-default --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token to print (required)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := context.Background()
	run, err := st.GetRun(ctx, opts.RunToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	steps, err := st.ListSteps(ctx, opts.RunToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.JSON(TraceOutput{Run: *run, Steps: steps})
	}

	out.Textf("run %s [%s] steps=%d bound=%d engine=%s",
		run.Token, run.Status, run.Steps, run.StepBound, run.EngineVersion)
	if run.Status == store.StatusCompleted {
		out.Textf("result: %s", run.ResultText)
	} else {
		out.Textf("error: %s", run.ErrorCode)
	}
	for _, step := range steps {
		out.Textf("%4d %-14s %s", step.Seq, step.Rule, step.AfterText)
	}
	return nil
}
