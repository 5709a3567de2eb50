package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miwamasa/icnet/internal/net"
	"github.com/miwamasa/icnet/internal/netspec"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	SpecsDir string
}

// ValidateOutput is the JSON payload for a validation run.
type ValidateOutput struct {
	FileCount int                    `json:"file_count"`
	Nets      []NetReport            `json:"nets"`
	Errors    []string               `json:"errors,omitempty"`
	Warnings  []netspec.CycleWarning `json:"warnings,omitempty"`
}

// NetReport summarizes one validated net.
type NetReport struct {
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	CellCount int    `json:"cell_count"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate CUE net specs and report cycle warnings",
		Long: `Compile every CUE net spec in a directory, run structural validation
(declared ids, cell arity), and report static cycle warnings. Cycles are
legal but inflate uncapped path searches, so they are surfaced here.

Examples:
  icnet validate --specs ./specs
  icnet validate --specs ./specs --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SpecsDir, "specs", "", "directory of CUE net specs (required)")
	_ = cmd.MarkFlagRequired("specs")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	result, errs := LoadSpecs(opts.SpecsDir, LoadModeCollectAll)
	if result == nil {
		return WrapExitError(ExitCommandError, "failed to load specs", errs[0])
	}

	output := ValidateOutput{FileCount: result.FileCount}
	for _, err := range errs {
		output.Errors = append(output.Errors, err.Error())
	}

	for _, spec := range result.Nets {
		if _, err := net.Build(spec); err != nil {
			output.Errors = append(output.Errors, fmt.Sprintf("net %s: %v", spec.Name, err))
			continue
		}
		output.Nets = append(output.Nets, NetReport{
			Name:      spec.Name,
			NodeCount: len(spec.Nodes),
			EdgeCount: len(spec.Edges),
			CellCount: len(spec.Cells),
		})
		output.Warnings = append(output.Warnings, netspec.AnalyzeCycles(spec)...)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		if err := out.JSON(output); err != nil {
			return err
		}
	} else {
		out.Textf("%d CUE file(s), %d net(s)", output.FileCount, len(output.Nets))
		for _, report := range output.Nets {
			out.Textf("  %s: %d node(s), %d edge(s), %d cell(s)",
				report.Name, report.NodeCount, report.EdgeCount, report.CellCount)
		}
		for _, warning := range output.Warnings {
			out.Textf("warning: %s", warning.Message)
		}
		for _, msg := range output.Errors {
			out.Textf("error: %s", msg)
		}
	}

	if len(output.Errors) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(output.Errors)))
	}
	return nil
}
