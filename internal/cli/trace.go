package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tether/internal/harness"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Execute a scenario and dump its event trace",
		Long: `Execute one scenario and print every lifecycle event it produced:
sequence, operation, ref, object, token, outcome, and violation code.

Example:
  tether trace testdata/scenarios/upcast_shared_liveness.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}
}

func runTrace(opts *RootOptions, path string, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result.Trace)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tOP\tREF\tOBJECT\tTOKEN\tOUTCOME\tCODE")
	for _, ev := range result.Trace {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.Seq, ev.Op, ev.RefID, ev.ObjectID, ev.TokenID, ev.Outcome, ev.Code)
	}
	return w.Flush()
}
