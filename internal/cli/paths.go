package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miwamasa/icnet/internal/net"
	"github.com/miwamasa/icnet/internal/store"
)

// PathsOptions holds flags for the paths command.
type PathsOptions struct {
	*RootOptions
	SpecsDir string
	NetName  string
	From     string
	To       string
	MaxPaths int
	MaxDepth int
	Database string
	Require  bool
}

// PathsOutput is the JSON payload for a path enumeration.
type PathsOutput struct {
	Net       string     `json:"net"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	PathCount int        `json:"path_count"`
	Paths     []net.Path `json:"paths"`
	QueryID   int64      `json:"query_id,omitempty"`
}

// NewPathsCommand creates the paths command.
func NewPathsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PathsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Enumerate all simple paths between two net nodes",
		Long: `Compile CUE net specs, build the named net, and enumerate every
simple path between two nodes. The listing order is deterministic
(depth-first in edge-declaration order) so it doubles as an audit trail.

Examples:
  icnet paths --specs ./specs --net diamond --from start --to end
  icnet paths --specs ./specs --net demo --from a --to z --max-depth 6 --db icnet.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaths(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SpecsDir, "specs", "", "directory of CUE net specs (required)")
	_ = cmd.MarkFlagRequired("specs")
	cmd.Flags().StringVar(&opts.NetName, "net", "", "net name to query (required)")
	_ = cmd.MarkFlagRequired("net")
	cmd.Flags().StringVar(&opts.From, "from", "", "start node id (required)")
	_ = cmd.MarkFlagRequired("from")
	cmd.Flags().StringVar(&opts.To, "to", "", "end node id (required)")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().IntVar(&opts.MaxPaths, "max-paths", 0, "stop after this many paths (0 = unlimited)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "reject paths longer than this many edges (0 = unlimited)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the query in this SQLite database")
	cmd.Flags().BoolVar(&opts.Require, "require", false, "fail (exit 1) when no path exists")

	return cmd
}

func runPaths(opts *PathsOptions, cmd *cobra.Command) error {
	result, errs := LoadSpecs(opts.SpecsDir, LoadModeFailFast)
	if len(errs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load specs", errs[0])
	}

	spec, ok := findNet(result.Nets, opts.NetName)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("net %q not found in %s", opts.NetName, opts.SpecsDir))
	}

	built, err := net.Build(*spec)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build net", err)
	}

	paths, err := net.FindPaths(built, opts.From, opts.To, net.FindOptions{
		MaxPaths: opts.MaxPaths,
		MaxDepth: opts.MaxDepth,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "path query failed", err)
	}

	output := PathsOutput{
		Net:       opts.NetName,
		From:      opts.From,
		To:        opts.To,
		PathCount: len(paths),
		Paths:     paths,
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		output.QueryID, err = st.WritePathQuery(context.Background(), opts.NetName, opts.From, opts.To, paths)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record path query", err)
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		if err := out.JSON(output); err != nil {
			return err
		}
	} else {
		for i, p := range paths {
			out.Textf("%3d: %s", i+1, p.String())
		}
		out.Textf("%d path(s) from %s to %s", len(paths), opts.From, opts.To)
	}

	if opts.Require && len(paths) == 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("no path from %s to %s", opts.From, opts.To))
	}
	return nil
}
